package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core/device"
)

type deviceRepository struct {
	base
}

var _ device.Repository = (*deviceRepository)(nil)

func NewDeviceRepository(db *sqlx.DB) device.Repository {
	return &deviceRepository{base{db: db}}
}

// deviceRow is a device joined with its owner.
type deviceRow struct {
	device.Device
	OwnerUsername string `db:"owner_username"`
	OwnerEmail    string `db:"owner_email"`
}

func (r deviceRow) device() device.Device {
	dev := r.Device
	dev.Username, dev.Email = r.OwnerUsername, r.OwnerEmail
	return dev
}

func deviceQuery() sq.SelectBuilder {
	cols := make([]string, 0)
	for _, c := range columns(device.Device{}) {
		cols = append(cols, "d."+c)
	}
	cols = append(cols, "u.username AS owner_username", "u.email AS owner_email")
	return psql.Select(cols...).From("devices d").Join("users u ON u.id = d.user_id")
}

func (repo *deviceRepository) getOne(ctx context.Context, q sq.SelectBuilder) (device.Device, error) {
	var row deviceRow
	if err := repo.get(ctx, &row, q); err != nil {
		return device.Device{}, trapNoRows(err, device.ErrNotFound, "finding device")
	}
	return row.device(), nil
}

func (repo *deviceRepository) GetDevice(ctx context.Context, userID int64, deviceID string) (device.Device, error) {
	return repo.getOne(ctx, deviceQuery().Where(sq.Eq{"d.user_id": userID, "d.device_id": deviceID}))
}

func (repo *deviceRepository) GetDeviceByID(ctx context.Context, id int64) (device.Device, error) {
	return repo.getOne(ctx, deviceQuery().Where(sq.Eq{"d.id": id}))
}

func (repo *deviceRepository) CreateDevice(ctx context.Context, dev device.Device) (device.Device, error) {
	id, err := repo.insert(ctx, "devices", dev)
	if err != nil {
		return device.Device{}, errors.Wrap(err, "inserting device")
	}
	dev.ID = id
	return dev, nil
}

func (repo *deviceRepository) UpdateDevice(ctx context.Context, dev device.Device) (device.Device, error) {
	n, err := repo.update(ctx, "devices", dev.ID, dev)
	if err != nil {
		return device.Device{}, errors.Wrap(err, "updating device")
	}
	if n == 0 {
		return device.Device{}, device.ErrNotFound
	}
	return dev, nil
}

func (repo *deviceRepository) ListDevices(ctx context.Context, filter device.QueryFilter) ([]device.Device, error) {
	q := deviceQuery().OrderBy("d.last_seen_at DESC")
	if filter.Status != "" {
		q = q.Where(sq.Eq{"d.status": filter.Status})
	}
	if filter.Search != "" {
		q = q.Where(ilike(filter.Search, "u.username", "u.email", "d.name", "d.device_id"))
	}
	var rows []deviceRow
	if err := repo.selectAll(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing devices")
	}
	devs := make([]device.Device, 0, len(rows))
	for _, r := range rows {
		devs = append(devs, r.device())
	}
	return devs, nil
}
