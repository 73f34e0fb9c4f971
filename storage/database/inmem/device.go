package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/janisrealty/janis/core/device"
)

type deviceRepository struct {
	db *DB
}

var _ device.Repository = (*deviceRepository)(nil)

func NewDeviceRepository(db *DB) device.Repository {
	return &deviceRepository{db: db}
}

// withOwner fills the owner's username and email.
func (repo *deviceRepository) withOwner(dev device.Device) device.Device {
	repo.db.users.RLock()
	defer repo.db.users.RUnlock()
	if usr, ok := repo.db.users.rows[dev.UserID]; ok {
		dev.Username = usr.Username
		dev.Email = usr.Email
	}
	return dev
}

func (repo *deviceRepository) GetDevice(_ context.Context, userID int64, deviceID string) (device.Device, error) {
	tbl := repo.db.devices
	tbl.RLock()
	dev, ok := tbl.first(func(d device.Device) bool { return d.UserID == userID && d.DeviceID == deviceID })
	tbl.RUnlock()
	if !ok {
		return device.Device{}, device.ErrNotFound
	}
	return repo.withOwner(dev), nil
}

func (repo *deviceRepository) GetDeviceByID(_ context.Context, id int64) (device.Device, error) {
	tbl := repo.db.devices
	tbl.RLock()
	dev, ok := tbl.rows[id]
	tbl.RUnlock()
	if !ok {
		return device.Device{}, device.ErrNotFound
	}
	return repo.withOwner(*dev), nil
}

func (repo *deviceRepository) CreateDevice(_ context.Context, dev device.Device) (device.Device, error) {
	tbl := repo.db.devices
	tbl.Lock()
	defer tbl.Unlock()
	dev.ID = tbl.nextID()
	tbl.put(dev.ID, dev)
	return dev, nil
}

func (repo *deviceRepository) UpdateDevice(_ context.Context, dev device.Device) (device.Device, error) {
	tbl := repo.db.devices
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[dev.ID]; !ok {
		return device.Device{}, device.ErrNotFound
	}
	tbl.put(dev.ID, dev)
	return dev, nil
}

func (repo *deviceRepository) ListDevices(_ context.Context, filter device.QueryFilter) ([]device.Device, error) {
	tbl := repo.db.devices
	tbl.RLock()
	devs := tbl.list(func(d device.Device) bool { return filter.Status == "" || d.Status == filter.Status })
	tbl.RUnlock()

	search := strings.ToLower(filter.Search)
	out := make([]device.Device, 0, len(devs))
	for _, d := range devs {
		d = repo.withOwner(d)
		if search != "" && !strings.Contains(strings.ToLower(d.Username), search) &&
			!strings.Contains(strings.ToLower(d.Email), search) &&
			!strings.Contains(strings.ToLower(d.Name), search) &&
			!strings.Contains(strings.ToLower(d.DeviceID), search) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastSeenAt.After(out[j].LastSeenAt) })
	return out, nil
}
