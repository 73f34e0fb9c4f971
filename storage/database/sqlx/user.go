package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

var userColumns = columns(user.User{})

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{base{db: db}}
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	q := psql.Select("username", "email").From("users").Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}})
	if len(excludedUsers) > 0 {
		ids := make([]int64, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	var found []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.selectAll(ctx, &found, q); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, f := range found {
		if username != "" && f.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && f.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return repo.exists(ctx, psql.Select("1").From("users").Where(sq.Eq{"username": username}))
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	id, err := repo.insert(ctx, "users", usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := psql.Select(userColumns...).From("users")
	switch {
	case filter.ID != 0:
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		q = q.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		q = q.Where(sq.Eq{"email": filter.Email})
	case filter.UsernameOrEmail != "":
		q = q.Where(sq.Or{sq.Eq{"username": filter.UsernameOrEmail}, sq.Eq{"email": filter.UsernameOrEmail}})
	default:
		return user.User{}, user.ErrNotFound
	}

	var usr user.User
	if err := repo.get(ctx, &usr, q.Limit(1)); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := psql.Select(userColumns...).From("users")
	if filter != nil {
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "first_name", "last_name", "username", "email"))
		}
		if len(filter.Roles) > 0 {
			q = q.Where(sq.Eq{"role_code": filter.Roles})
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if filter.IsAgent != nil {
			q = q.Where(sq.Eq{"is_active_agent": *filter.IsAgent})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}
	if ord := orderBy(ordering, "username", "email", "first_name", "last_name", "created_at"); len(ord) > 0 {
		q = q.OrderBy(ord...)
	} else {
		q = q.OrderBy("id")
	}

	users := []user.User{}
	if err := repo.selectAll(ctx, &users, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	n, err := repo.update(ctx, "users", usr.ID, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsers(ctx context.Context, ids ...int64) error {
	_, err := repo.exec(ctx, psql.Delete("users").Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting users")
}

func (repo *userRepository) GetProfile(ctx context.Context, userID int64) (user.Profile, error) {
	var prof user.Profile
	q := psql.Select(columns(user.Profile{})...).From("user_profiles").Where(sq.Eq{"user_id": userID})
	if err := repo.get(ctx, &prof, q); err != nil {
		return user.Profile{}, trapNoRows(err, user.ErrNotFound, "finding profile")
	}
	return prof, nil
}

func (repo *userRepository) SaveProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	q := psql.Insert("user_profiles").SetMap(values(prof)).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET theme = EXCLUDED.theme, notify_email = EXCLUDED.notify_email, notify_whatsapp = EXCLUDED.notify_whatsapp")
	if _, err := repo.exec(ctx, q); err != nil {
		return user.Profile{}, errors.Wrap(err, "saving profile")
	}
	return prof, nil
}

func (repo *userRepository) ListAreas(ctx context.Context) ([]user.Area, error) {
	areas := []user.Area{}
	if err := repo.selectAll(ctx, &areas, psql.Select("id", "name").From("areas").OrderBy("name")); err != nil {
		return nil, errors.Wrap(err, "listing areas")
	}
	return areas, nil
}

func (repo *userRepository) GetOrCreateArea(ctx context.Context, name string) (user.Area, error) {
	var area user.Area
	q := psql.Insert("areas").Columns("name").Values(name).
		Suffix("ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id, name")
	if err := repo.get(ctx, &area, q); err != nil {
		return user.Area{}, errors.Wrap(err, "saving area")
	}
	return area, nil
}

func (repo *userRepository) ListFieldPermissions(ctx context.Context, role string) ([]user.FieldPermission, error) {
	q := psql.Select(columns(user.FieldPermission{})...).From("field_permissions").OrderBy("role_code", "field_name")
	if role != "" {
		q = q.Where(sq.Eq{"role_code": role})
	}
	perms := []user.FieldPermission{}
	if err := repo.selectAll(ctx, &perms, q); err != nil {
		return nil, errors.Wrap(err, "listing field permissions")
	}
	return perms, nil
}

func (repo *userRepository) SaveFieldPermission(ctx context.Context, fp user.FieldPermission) (user.FieldPermission, error) {
	q := psql.Insert("field_permissions").SetMap(values(fp)).
		Suffix("ON CONFLICT (role_code, field_name) DO UPDATE SET can_view = EXCLUDED.can_view, can_edit = EXCLUDED.can_edit")
	if _, err := repo.exec(ctx, q); err != nil {
		return user.FieldPermission{}, errors.Wrap(err, "saving field permission")
	}
	return fp, nil
}
