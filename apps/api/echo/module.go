package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/module"
	"github.com/trezcool/shule/core/user"
)

type moduleApi struct {
	svc      *module.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerModuleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := moduleApi{
		svc:      deps.ModuleSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/modules", jwt)
	mg.GET("", api.query)
	mg.POST("", api.create, adminMiddleware())
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update, adminMiddleware())
	mg.DELETE("/:id", api.destroy, adminMiddleware())
	mg.POST("/:id/lecturer", api.assignLecturer, rolesMiddleware(user.RoleLeader))
	mg.DELETE("/:id/lecturer", api.unassignLecturer, rolesMiddleware(user.RoleLeader))

	cg := g.Group("/classes", jwt)
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass, adminMiddleware())
	cg.DELETE("/:id", api.destroyClass, adminMiddleware())

	ag := g.Group("/assignments", jwt, adminMiddleware())
	ag.GET("", api.queryAssignments)
	ag.POST("", api.createAssignment)
	ag.DELETE("", api.destroyAssignment)

	rg := g.Group("/registrations", jwt, adminMiddleware())
	rg.GET("", api.queryRegistrations)
	rg.POST("", api.createRegistration)

	lg := g.Group("/lecturers", jwt, adminMiddleware())
	lg.GET("", api.queryLecturers)
	lg.POST("/sync", api.syncLecturers)
}

// Handlers

func (api *moduleApi) query(ctx echo.Context) error {
	mods, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	if mods == nil {
		mods = []module.Module{}
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *moduleApi) retrieve(ctx echo.Context) error {
	mod, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *moduleApi) create(ctx echo.Context) error {
	var data module.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *moduleApi) update(ctx echo.Context) error {
	var data module.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *moduleApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *moduleApi) assignLecturer(ctx echo.Context) error {
	var data AssignLecturerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignLecturerRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	mod, err := api.svc.AssignLecturer(actor, ctx.Param("id"), data.LecturerID)
	if err != nil {
		return errors.Wrap(err, "assigning lecturer")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *moduleApi) unassignLecturer(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	mod, err := api.svc.UnassignLecturer(actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "unassigning lecturer")
	}
	return ctx.JSON(http.StatusOK, mod)
}

// Classes

func (api *moduleApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.QueryAllClasses()
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []module.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *moduleApi) createClass(ctx echo.Context) error {
	var data module.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.CreateClass(data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *moduleApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Leader-lecturer assignments

func (api *moduleApi) queryAssignments(ctx echo.Context) error {
	asgs, err := api.svc.QueryAllAssignments()
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []module.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *moduleApi) createAssignment(ctx echo.Context) error {
	var data module.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	asg, err := api.svc.CreateAssignment(data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *moduleApi) destroyAssignment(ctx echo.Context) error {
	leaderID := ctx.QueryParam("leader_id")
	lecturerID := ctx.QueryParam("lecturer_id")
	if leaderID == "" || lecturerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "leader_id and lecturer_id are required")
	}

	if err := api.svc.DeleteAssignment(leaderID, lecturerID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Registrations

func (api *moduleApi) queryRegistrations(ctx echo.Context) error {
	regs, err := api.svc.QueryAllRegistrations()
	if err != nil {
		return errors.Wrap(err, "querying registrations")
	}
	if regs == nil {
		regs = []module.Registration{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *moduleApi) createRegistration(ctx echo.Context) error {
	var data module.NewRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.RegisterStudent(data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

// Derived lecturer projection

func (api *moduleApi) queryLecturers(ctx echo.Context) error {
	rows, err := api.svc.QueryLecturerRows()
	if err != nil {
		return errors.Wrap(err, "querying lecturer rows")
	}
	if rows == nil {
		rows = []module.LecturerRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *moduleApi) syncLecturers(ctx echo.Context) error {
	if err := api.svc.SyncLecturers(); err != nil {
		return errors.Wrap(err, "syncing lecturer projection")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type AssignLecturerRequest struct {
	LecturerID string `json:"lecturer_id" validate:"required"`
}
