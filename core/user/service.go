package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUsernameUniqueness matches usernames case-insensitively.
		CheckUsernameUniqueness(username string, excludedUsers ...User) error
		// NextUserID allocates the next zero-padded id for the given role prefix.
		NextUserID(prefix string) (string, error)
		CreateUser(usr User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByUsername(username string) (User, error)
		UpdateUser(usr User) (User, error)
		DeleteUserByID(id string) error
		// ResolveStudentID finds the student number of a STUDENT user by
		// joining through the students file (either layout).
		ResolveStudentID(usr User) (string, error)
		QueryAllStudents() ([]Student, error)
		GetStudentByUsername(username string) (Student, error)
		CreateStudent(st Student) (Student, error)
	}

	// ReferenceScanner performs a read-only match of `keys` against one
	// pipe-delimited column of a record file.
	ReferenceScanner interface {
		ScanColumn(file string, column int, keys ...string) (bool, error)
	}

	// ProjectionSyncer regenerates the derived lecturers file.
	ProjectionSyncer interface {
		SyncLecturers() error
	}

	Service struct {
		repo    Repository
		scanner ReferenceScanner
		mailSvc core.EmailService
		conf    *core.Config
		syncer  ProjectionSyncer
	}
)

func NewService(repo Repository, scanner ReferenceScanner, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		scanner: scanner,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// SetProjectionSyncer wires the module service's projection sync after both
// services exist. A nil syncer disables re-syncing (tests).
func (svc *Service) SetProjectionSyncer(syncer ProjectionSyncer) {
	svc.syncer = syncer
}

func (svc *Service) CheckUniqueness(uname string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, exclUsers...); err != nil {
		if err == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	id, err := svc.repo.NextUserID(IDPrefix(nu.Role))
	if err != nil {
		return User{}, err
	}
	usr := User{
		ID:       id,
		Username: nu.Username,
		Name:     nu.Name,
		Gender:   nu.Gender,
		Email:    nu.Email,
		Phone:    nu.Phone,
		Age:      nu.Age,
		Role:     nu.Role,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	usr, err = svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr, nu.Password)
	return usr, svc.syncProjection()
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

// Authenticate looks a user up by username and verifies their password.
func (svc *Service) Authenticate(uname, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	origUsr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return User{}, err
	}

	// a role change may not orphan records referencing the current role
	if uu.Role != "" && uu.Role != origUsr.Role {
		if err := svc.checkDependencies(origUsr); err != nil {
			return User{}, err
		}
	}

	usr := origUsr
	usr.Username = uu.Username
	usr.Name = uu.Name
	usr.Email = uu.Email
	if uu.Gender != "" {
		usr.Gender = uu.Gender
	}
	if uu.Phone != "" {
		usr.Phone = core.CleanString(uu.Phone)
	}
	if uu.Age != 0 {
		usr.Age = uu.Age
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	usr, err = svc.repo.UpdateUser(usr)
	if err != nil {
		return User{}, err
	}
	return usr, svc.syncProjection()
}

func (svc *Service) SetPassword(uname, pwd string) (User, error) {
	usr, err := svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr, err = svc.repo.UpdateUser(usr)
	if err != nil {
		return User{}, err
	}
	return usr, svc.syncProjection()
}

func (svc *Service) Delete(id string) error {
	usr, err := svc.repo.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := svc.checkDependencies(usr); err != nil {
		return err
	}
	if err := svc.repo.DeleteUserByID(id); err != nil {
		return err
	}
	return svc.syncProjection()
}

// Students

func (svc *Service) QueryAllStudents() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

// CreateStudentRecord gives a STUDENT user their student number by writing an
// extended row to the students file.
func (svc *Service) CreateStudentRecord(ns NewStudent) (Student, error) {
	usr, err := svc.repo.GetUserByUsername(ns.Username)
	if err != nil {
		if err == ErrNotFound {
			return Student{}, core.NewValidationError(nil, core.FieldError{
				Field: "username", Error: "user does not exist: " + ns.Username,
			})
		}
		return Student{}, err
	}
	if !usr.IsStudent() {
		return Student{}, core.NewValidationError(nil, core.FieldError{
			Field: "username", Error: "user " + usr.ID + " is not a STUDENT",
		})
	}
	if _, err := svc.repo.GetStudentByUsername(usr.Username); err == nil {
		return Student{}, core.NewValidationError(nil, core.FieldError{
			Field: "username", Error: "a student record already exists for " + usr.Username,
		})
	} else if err != ErrNotFound {
		return Student{}, err
	}

	students, err := svc.repo.QueryAllStudents()
	if err != nil {
		return Student{}, err
	}
	for _, st := range students {
		if strings.EqualFold(st.StudentID, ns.StudentID) {
			return Student{}, core.NewValidationError(nil, core.FieldError{
				Field: "student_id", Error: "student number already taken: " + ns.StudentID,
			})
		}
	}

	return svc.repo.CreateStudent(Student{
		Username:  usr.Username,
		Password:  usr.PasswordHash,
		Name:      usr.Name,
		Gender:    usr.Gender,
		Email:     usr.Email,
		Phone:     usr.Phone,
		Age:       usr.Age,
		StudentID: ns.StudentID,
		ModuleID:  ns.ModuleID,
	})
}

func (svc *Service) syncProjection() error {
	if svc.syncer == nil {
		return nil
	}
	return svc.syncer.SyncLecturers()
}

func (svc *Service) sendWelcomeEmail(usr User, pwd string) {
	if svc.mailSvc == nil || usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Your account is ready",
		Body: fmt.Sprintf(
			"Hi %s,\r\n\r\nAn account has been created for you.\r\n\r\nUsername: %s\r\nPassword: %s\r\n\r\nPlease change your password after your first login.\r\n",
			usr.Name, usr.Username, pwd,
		),
	})
}
