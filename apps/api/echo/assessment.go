package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/assessment"
	"github.com/trezcool/shule/core/user"
)

type assessmentApi struct {
	svc      *assessment.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assessmentApi{
		svc:      deps.AssessmentSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/assessments", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, rolesMiddleware(user.RoleLecturer))
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, rolesMiddleware(user.RoleLecturer))
	ag.DELETE("/:id", api.destroy, rolesMiddleware(user.RoleLecturer))

	gg := g.Group("/grades", jwt)
	gg.GET("", api.queryGrades)
	gg.POST("", api.recordGrade, rolesMiddleware(user.RoleLecturer))

	fg := g.Group("/feedback", jwt)
	fg.GET("", api.queryFeedback)
	fg.POST("", api.giveFeedback, rolesMiddleware(user.RoleLecturer))

	cg := g.Group("/comments", jwt)
	cg.GET("", api.queryComments)
	cg.POST("", api.addComment, rolesMiddleware(user.RoleLecturer))

	rg := g.Group("/grading", jwt)
	rg.GET("", api.queryGradingRules)
	rg.POST("", api.createGradingRule, adminMiddleware())
	rg.PUT("/:grade", api.updateGradingRule, adminMiddleware())
	rg.DELETE("/:grade", api.destroyGradingRule, adminMiddleware())
}

// Handlers

func (api *assessmentApi) query(ctx echo.Context) error {
	asses, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying assessments")
	}
	if asses == nil {
		asses = []assessment.Assessment{}
	}
	return ctx.JSON(http.StatusOK, asses)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	ass, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ass)
}

func (api *assessmentApi) create(ctx echo.Context) error {
	var data assessment.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ass, err := api.svc.Create(actor, data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, ass)
}

func (api *assessmentApi) update(ctx echo.Context) error {
	var data assessment.UpdateAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssessment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ass, err := api.svc.Update(actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assessment")
	}
	return ctx.JSON(http.StatusOK, ass)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Grades

func (api *assessmentApi) queryGrades(ctx echo.Context) error {
	grades, err := api.svc.QueryAllGrades()
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	if grades == nil {
		grades = []assessment.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *assessmentApi) recordGrade(ctx echo.Context) error {
	var data assessment.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	grd, err := api.svc.RecordGrade(actor, data)
	if err != nil {
		return errors.Wrap(err, "recording grade")
	}
	return ctx.JSON(http.StatusCreated, grd)
}

// Feedback

func (api *assessmentApi) queryFeedback(ctx echo.Context) error {
	fbs, err := api.svc.QueryAllFeedback()
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	if fbs == nil {
		fbs = []assessment.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (api *assessmentApi) giveFeedback(ctx echo.Context) error {
	var data assessment.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fb, err := api.svc.GiveFeedback(actor, data)
	if err != nil {
		return errors.Wrap(err, "giving feedback")
	}
	return ctx.JSON(http.StatusOK, fb)
}

// Comments

func (api *assessmentApi) queryComments(ctx echo.Context) error {
	cmts, err := api.svc.QueryAllComments()
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if cmts == nil {
		cmts = []assessment.Comment{}
	}
	return ctx.JSON(http.StatusOK, cmts)
}

func (api *assessmentApi) addComment(ctx echo.Context) error {
	var data assessment.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cmt, err := api.svc.AddComment(actor, data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, cmt)
}

// Grading rules

func (api *assessmentApi) queryGradingRules(ctx echo.Context) error {
	rules, err := api.svc.QueryAllGradingRules()
	if err != nil {
		return errors.Wrap(err, "querying grading rules")
	}
	if rules == nil {
		rules = []assessment.GradingRule{}
	}
	return ctx.JSON(http.StatusOK, rules)
}

func (api *assessmentApi) createGradingRule(ctx echo.Context) error {
	var data assessment.NewGradingRule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGradingRule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rule, err := api.svc.CreateGradingRule(data)
	if err != nil {
		return errors.Wrap(err, "creating grading rule")
	}
	return ctx.JSON(http.StatusCreated, rule)
}

func (api *assessmentApi) updateGradingRule(ctx echo.Context) error {
	var data assessment.NewGradingRule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGradingRule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rule, err := api.svc.UpdateGradingRule(ctx.Param("grade"), data)
	if err != nil {
		return errors.Wrap(err, "updating grading rule")
	}
	return ctx.JSON(http.StatusOK, rule)
}

func (api *assessmentApi) destroyGradingRule(ctx echo.Context) error {
	if err := api.svc.DeleteGradingRule(ctx.Param("grade")); err != nil {
		return errors.Wrap(err, "deleting grading rule")
	}
	return ctx.NoContent(http.StatusNoContent)
}
