package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	tbl := repo.db.users
	tbl.RLock()
	defer tbl.RUnlock()

	excluded := make(map[int64]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range tbl.list(nil) {
		if excluded[usr.ID] {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) UsernameExists(_ context.Context, username string) (bool, error) {
	tbl := repo.db.users
	tbl.RLock()
	defer tbl.RUnlock()
	_, ok := tbl.first(func(u user.User) bool { return u.Username == username })
	return ok, nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	tbl := repo.db.users
	tbl.Lock()
	defer tbl.Unlock()
	usr.ID = tbl.nextID()
	tbl.put(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	tbl := repo.db.users
	tbl.RLock()
	defer tbl.RUnlock()

	var match func(user.User) bool
	switch {
	case filter.ID != 0:
		if usr, ok := tbl.rows[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	case filter.Username != "":
		match = func(u user.User) bool { return u.Username == filter.Username }
	case filter.Email != "":
		match = func(u user.User) bool { return u.Email == filter.Email }
	case filter.UsernameOrEmail != "":
		match = func(u user.User) bool {
			return u.Username == filter.UsernameOrEmail || u.Email == filter.UsernameOrEmail
		}
	default:
		return user.User{}, user.ErrNotFound
	}
	if usr, ok := tbl.first(match); ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	tbl := repo.db.users
	tbl.RLock()
	defer tbl.RUnlock()

	users := tbl.list(func(u user.User) bool {
		if filter == nil {
			return true
		}
		if s := strings.ToLower(filter.Search); s != "" {
			if !strings.Contains(strings.ToLower(u.FirstName), s) && !strings.Contains(strings.ToLower(u.LastName), s) &&
				!strings.Contains(strings.ToLower(u.Username), s) && !strings.Contains(strings.ToLower(u.Email), s) {
				return false
			}
		}
		if len(filter.Roles) > 0 && !containsString(filter.Roles, u.RoleCode) {
			return false
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			return false
		}
		if filter.IsAgent != nil && u.IsActiveAgent != *filter.IsAgent {
			return false
		}
		if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom) {
			return false
		}
		if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo) {
			return false
		}
		return true
	})

	for i := len(ordering) - 1; i >= 0; i-- {
		ord := ordering[i]
		sort.SliceStable(users, func(a, b int) bool {
			less := userLess(users[a], users[b], ord.Field)
			if ord.Ascending {
				return less
			}
			return userLess(users[b], users[a], ord.Field)
		})
	}
	return users, nil
}

func userLess(a, b user.User, field string) bool {
	switch field {
	case "username":
		return a.Username < b.Username
	case "email":
		return a.Email < b.Email
	case "first_name":
		return a.FirstName < b.FirstName
	case "last_name":
		return a.LastName < b.LastName
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	tbl := repo.db.users
	tbl.Lock()
	defer tbl.Unlock()
	if _, ok := tbl.rows[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	tbl.put(usr.ID, usr)
	return usr, nil
}

func (repo *userRepository) DeleteUsers(_ context.Context, ids ...int64) error {
	tbl := repo.db.users
	tbl.Lock()
	defer tbl.Unlock()
	tbl.remove(func(u user.User) bool { return containsID(ids, u.ID) })
	return nil
}

func (repo *userRepository) GetProfile(_ context.Context, userID int64) (user.Profile, error) {
	tbl := repo.db.profiles
	tbl.RLock()
	defer tbl.RUnlock()
	if prof, ok := tbl.rows[userID]; ok {
		return *prof, nil
	}
	return user.Profile{}, user.ErrNotFound
}

func (repo *userRepository) SaveProfile(_ context.Context, prof user.Profile) (user.Profile, error) {
	tbl := repo.db.profiles
	tbl.Lock()
	defer tbl.Unlock()
	tbl.put(prof.UserID, prof)
	return prof, nil
}

func (repo *userRepository) ListAreas(_ context.Context) ([]user.Area, error) {
	tbl := repo.db.areas
	tbl.RLock()
	defer tbl.RUnlock()
	areas := tbl.list(nil)
	sort.SliceStable(areas, func(i, j int) bool { return areas[i].Name < areas[j].Name })
	return areas, nil
}

func (repo *userRepository) GetOrCreateArea(_ context.Context, name string) (user.Area, error) {
	tbl := repo.db.areas
	tbl.Lock()
	defer tbl.Unlock()
	if a, ok := tbl.first(func(a user.Area) bool { return strings.EqualFold(a.Name, name) }); ok {
		return a, nil
	}
	a := user.Area{Name: name}
	a.ID = tbl.nextID()
	tbl.put(a.ID, a)
	return a, nil
}

func (repo *userRepository) ListFieldPermissions(_ context.Context, role string) ([]user.FieldPermission, error) {
	tbl := repo.db.fieldPerms
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.list(func(fp user.FieldPermission) bool { return role == "" || fp.RoleCode == role }), nil
}

func (repo *userRepository) SaveFieldPermission(_ context.Context, fp user.FieldPermission) (user.FieldPermission, error) {
	tbl := repo.db.fieldPerms
	tbl.Lock()
	defer tbl.Unlock()
	for _, row := range tbl.rows {
		if row.RoleCode == fp.RoleCode && row.FieldName == fp.FieldName {
			*row = fp
			return fp, nil
		}
	}
	tbl.put(tbl.nextID(), fp)
	return fp, nil
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
