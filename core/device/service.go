package device

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kat-co/vala"

	"github.com/janisrealty/janis/core"
)

var (
	// errors
	ErrNotFound = errors.New("device not found")
)

type (
	Repository interface {
		// GetDevice returns the device of userID identified by the client deviceID.
		GetDevice(ctx context.Context, userID int64, deviceID string) (Device, error)
		GetDeviceByID(ctx context.Context, id int64) (Device, error)
		CreateDevice(ctx context.Context, dev Device) (Device, error)
		UpdateDevice(ctx context.Context, dev Device) (Device, error)
		// ListDevices sorts by last_seen_at descending. The search matches the owner's username
		// or email, the device name or its client id.
		ListDevices(ctx context.Context, filter QueryFilter) ([]Device, error)
	}

	Service struct {
		repo Repository
	}
)

// NowFunc is mocked in tests.
var NowFunc = func() time.Time { return time.Now().UTC() }

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).CheckAndPanic()
	return &Service{repo: repo}
}

// Touch registers the device of userID as pending if unknown and refreshes its last-seen info.
func (svc *Service) Touch(ctx context.Context, userID int64, meta Meta) (Device, error) {
	meta.Clean()
	if meta.DeviceID == "" {
		return Device{}, core.NewFieldError("device_id", "this field is required")
	}

	now := NowFunc()
	dev, err := svc.repo.GetDevice(ctx, userID, meta.DeviceID)
	if err == ErrNotFound {
		return svc.repo.CreateDevice(ctx, Device{
			UserID:     userID,
			DeviceID:   meta.DeviceID,
			Name:       meta.Name,
			Platform:   meta.Platform,
			UserAgent:  meta.UserAgent,
			IP:         meta.IP,
			Status:     StatusPending,
			LastSeenAt: now,
			CreatedAt:  now,
		})
	} else if err != nil {
		return Device{}, err
	}

	dev.LastSeenAt = now
	dev.UserAgent = meta.UserAgent
	dev.IP = meta.IP
	if meta.Name != "" {
		dev.Name = meta.Name
	}
	if meta.Platform != "" {
		dev.Platform = meta.Platform
	}
	return svc.repo.UpdateDevice(ctx, dev)
}

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Device, error) {
	filter.Search = core.CleanString(filter.Search)
	filter.Status = Status(strings.ToLower(string(filter.Status)))
	if filter.Status != "" && !filter.Status.Valid() {
		filter.Status = ""
	}
	return svc.repo.ListDevices(ctx, filter)
}

func (svc *Service) Counts(ctx context.Context) (Counts, error) {
	devs, err := svc.repo.ListDevices(ctx, QueryFilter{})
	if err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, d := range devs {
		switch d.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusBlocked:
			c.Blocked++
		}
	}
	return c, nil
}

// SetStatus updates the status of the device with the given id. Only approved devices are trusted.
func (svc *Service) SetStatus(ctx context.Context, id int64, status Status) (Device, error) {
	if !status.Valid() {
		return Device{}, core.NewFieldError("status", "invalid choice")
	}
	dev, err := svc.repo.GetDeviceByID(ctx, id)
	if err != nil {
		return Device{}, err
	}
	dev.Status = status
	dev.IsTrusted = status == StatusApproved
	return svc.repo.UpdateDevice(ctx, dev)
}
