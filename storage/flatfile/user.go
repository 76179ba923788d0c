package flatfile

import (
	"strconv"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// user schema chain, newest first. Parsers are tried in order; each either
// claims the row or reports "not this schema". Serialization always emits the
// current layout, so legacy rows migrate whenever their line is rewritten.
type userSchema func(fields []string) (user.User, bool)

var userSchemas = []userSchema{parseUserV2, parseUserV1}

// current layout: id|username|password|name|gender|email|phone|age|role
func parseUserV2(f []string) (user.User, bool) {
	if len(f) != 9 {
		return user.User{}, false
	}
	age, ok := parseOptionalInt(f[7])
	if !ok {
		return user.User{}, false
	}
	return user.User{
		ID:           f[0],
		Username:     f[1],
		PasswordHash: f[2],
		Name:         f[3],
		Gender:       f[4],
		Email:        f[5],
		Phone:        f[6],
		Age:          age,
		Role:         f[8],
	}, true
}

// legacy layout: id|name|username|password|role
func parseUserV1(f []string) (user.User, bool) {
	if len(f) != 5 {
		return user.User{}, false
	}
	return user.User{
		ID:           f[0],
		Name:         f[1],
		Username:     f[2],
		PasswordHash: f[3],
		Role:         f[4],
	}, true
}

func parseUser(fields []string) (user.User, bool) {
	for _, schema := range userSchemas {
		if usr, ok := schema(fields); ok {
			return usr, true
		}
	}
	return user.User{}, false
}

func marshalUser(usr user.User) []string {
	return []string{
		usr.ID,
		usr.Username,
		usr.PasswordHash,
		usr.Name,
		usr.Gender,
		usr.Email,
		usr.Phone,
		strconv.Itoa(usr.Age),
		usr.Role,
	}
}

// student schema chain.
type studentSchema func(fields []string) (user.Student, bool)

var studentSchemas = []studentSchema{parseStudentV2, parseStudentV1}

// current (extended) layout:
// username|password|name|gender|email|phone|age|studentId|moduleId
// (a trailing tenth field from even older exports is tolerated and dropped)
func parseStudentV2(f []string) (user.Student, bool) {
	if len(f) != 9 && len(f) != 10 {
		return user.Student{}, false
	}
	age, ok := parseOptionalInt(f[6])
	if !ok {
		return user.Student{}, false
	}
	return user.Student{
		Username:  f[0],
		Password:  f[1],
		Name:      f[2],
		Gender:    f[3],
		Email:     f[4],
		Phone:     f[5],
		Age:       age,
		StudentID: f[7],
		ModuleID:  f[8],
	}, true
}

// legacy compact layout: studentId|userId
func parseStudentV1(f []string) (user.Student, bool) {
	if len(f) != 2 {
		return user.Student{}, false
	}
	return user.Student{StudentID: f[0]}, true
}

func parseStudent(fields []string) (user.Student, bool) {
	for _, schema := range studentSchemas {
		if st, ok := schema(fields); ok {
			return st, true
		}
	}
	return user.Student{}, false
}

func marshalStudent(st user.Student) []string {
	return []string{
		st.Username,
		st.Password,
		st.Name,
		st.Gender,
		st.Email,
		st.Phone,
		strconv.Itoa(st.Age),
		st.StudentID,
		st.ModuleID,
	}
}

// parseOptionalInt treats an empty field as zero; any other unparseable value
// poisons the whole line.
func parseOptionalInt(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

type userRepository struct {
	store *Store
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(store *Store) *userRepository {
	return &userRepository{store: store}
}

func (repo *userRepository) query() ([]user.User, error) {
	rows, err := repo.store.ReadAll(core.UsersFile)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		if usr, ok := parseUser(row); ok {
			users = append(users, usr)
		}
		// malformed lines are dropped from the read, never fatal
	}
	return users, nil
}

func (repo *userRepository) CheckUsernameUniqueness(username string, excludedUsers ...user.User) error {
	users, err := repo.query()
	if err != nil {
		return err
	}
	for _, usr := range users {
		if strings.EqualFold(usr.Username, username) && !isExcluded(usr, excludedUsers) {
			return user.ErrUsernameExists
		}
	}
	return nil
}

func (repo *userRepository) NextUserID(prefix string) (string, error) {
	return repo.store.nextSequentialID(core.UsersFile, prefix)
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	if err := repo.store.Append(core.UsersFile, marshalUser(usr)); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	return repo.query()
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	users, err := repo.query()
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range users {
		if strings.EqualFold(usr.ID, id) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	users, err := repo.query()
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range users {
		if strings.EqualFold(usr.Username, username) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

// UpdateUser rewrites the matching row in the current layout; rows it does
// not touch keep whatever layout they had (opportunistic migration).
func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	found, err := repo.store.UpdateByID(core.UsersFile, usr.ID, marshalUser(usr))
	if err != nil {
		return user.User{}, err
	}
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUserByID(id string) error {
	deleted, err := repo.store.DeleteByID(core.UsersFile, id)
	if err != nil {
		return err
	}
	if !deleted {
		return user.ErrNotFound
	}
	return nil
}

// ResolveStudentID joins a STUDENT user to their student number: extended
// rows key by username, compact legacy rows key by user id.
func (repo *userRepository) ResolveStudentID(usr user.User) (string, error) {
	rows, err := repo.store.ReadAll(core.StudentsFile)
	if err != nil {
		return "", err
	}
	for _, row := range rows {
		switch {
		case len(row) == 2 && strings.EqualFold(row[1], usr.ID):
			return row[0], nil
		case len(row) >= 9 && strings.EqualFold(row[0], usr.Username):
			return row[7], nil
		}
	}
	return "", user.ErrNotFound
}

func (repo *userRepository) QueryAllStudents() ([]user.Student, error) {
	rows, err := repo.store.ReadAll(core.StudentsFile)
	if err != nil {
		return nil, err
	}
	students := make([]user.Student, 0, len(rows))
	for _, row := range rows {
		if st, ok := parseStudent(row); ok {
			students = append(students, st)
		}
	}
	return students, nil
}

func (repo *userRepository) GetStudentByUsername(username string) (user.Student, error) {
	students, err := repo.QueryAllStudents()
	if err != nil {
		return user.Student{}, err
	}
	for _, st := range students {
		if strings.EqualFold(st.Username, username) {
			return st, nil
		}
	}
	return user.Student{}, user.ErrNotFound
}

func (repo *userRepository) CreateStudent(st user.Student) (user.Student, error) {
	if err := repo.store.Append(core.StudentsFile, marshalStudent(st)); err != nil {
		return user.Student{}, err
	}
	return st, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
