package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/verify"
)

// recordApi is the student-facing CRUD surface over the five verifiable
// record kinds. Writes are always bound to the calling user; reads go through
// the engine's visibility scope.
type recordApi struct {
	svc       *record.Service
	verifySvc *verify.Service
	userSvc   *user.Service
}

func registerRecordAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *record.Service, verifySvc *verify.Service, userSvc *user.Service) {
	api := recordApi{svc: svc, verifySvc: verifySvc, userSvc: userSvc}

	qg := g.Group("/qualifications", jwt)
	qg.POST("", api.createQualification)
	qg.GET("", api.listKind(record.KindQualification))
	qg.GET("/:id", api.getQualification)
	qg.PUT("/:id", api.updateQualification)

	sg := g.Group("/sessions", jwt)
	sg.POST("", api.createSession)
	sg.GET("", api.listKind(record.KindSession))
	sg.GET("/:id", api.getSession)
	sg.PUT("/:id", api.updateSession)

	ag := g.Group("/activities", jwt)
	ag.POST("", api.createActivity)
	ag.GET("", api.listKind(record.KindActivity))
	ag.GET("/:id", api.getActivity)
	ag.PUT("/:id", api.updateActivity)

	cg := g.Group("/competencies", jwt)
	cg.POST("", api.createCompetencyRating)
	cg.GET("", api.listKind(record.KindCompetency))
	cg.GET("/:id", api.getCompetencyRating)
	cg.PUT("/:id", api.updateCompetencyRating)

	dg := g.Group("/documents", jwt)
	dg.POST("", api.createProfileDocument)
	dg.GET("", api.listKind(record.KindProfile))
	dg.GET("/:id", api.getProfileDocument)
	dg.PUT("/:id", api.updateProfileDocument)
}

// checkVisible resolves the caller's scope and hides records outside it; an
// invisible record reads as not found, never as forbidden.
func (api *recordApi) checkVisible(ctx echo.Context, ownerID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	scope, err := api.verifySvc.ResolveScope(ctx.Request().Context(), claims.Actor())
	if err != nil {
		return errors.Wrap(err, "resolving scope")
	}
	if !scope.Allows(ownerID) {
		return errHttpNotFound
	}
	return nil
}

// listKind serves the scoped per-kind list shared by all five routes.
func (api *recordApi) listKind(kind record.Kind) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}

		var statusFilter *record.Status
		if val := ctx.QueryParam("status"); val != "" {
			status := record.Status(val)
			statusFilter = &status
		}

		listing, err := api.verifySvc.List(ctx.Request().Context(), claims.Actor(), kind, statusFilter, ctx.QueryParam("owner"))
		if err != nil {
			return errors.Wrapf(err, "listing %s records", kind)
		}

		switch kind {
		case record.KindQualification:
			return ctx.JSON(http.StatusOK, listing.Qualifications)
		case record.KindSession:
			return ctx.JSON(http.StatusOK, listing.Sessions)
		case record.KindActivity:
			return ctx.JSON(http.StatusOK, listing.Activities)
		case record.KindCompetency:
			return ctx.JSON(http.StatusOK, listing.Competencies)
		default:
			return ctx.JSON(http.StatusOK, listing.Profiles)
		}
	}
}

// Qualifications

func (api *recordApi) createQualification(ctx echo.Context) error {
	var data record.NewQualification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQualification")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	q, err := api.svc.CreateQualification(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating qualification")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *recordApi) getQualification(ctx echo.Context) error {
	q, err := api.svc.GetQualification(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding qualification")
	}
	if err := api.checkVisible(ctx, q.OwnerID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *recordApi) updateQualification(ctx echo.Context) error {
	var data record.NewQualification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQualification")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	q, err := api.svc.UpdateQualification(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating qualification")
	}
	return ctx.JSON(http.StatusOK, q)
}

// Sessions

func (api *recordApi) createSession(ctx echo.Context) error {
	var data record.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.CreateSession(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *recordApi) getSession(ctx echo.Context) error {
	s, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding session")
	}
	if err := api.checkVisible(ctx, s.OwnerID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *recordApi) updateSession(ctx echo.Context) error {
	var data record.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.UpdateSession(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating session")
	}
	return ctx.JSON(http.StatusOK, s)
}

// Activities

func (api *recordApi) createActivity(ctx echo.Context) error {
	var data record.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.CreateActivity(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *recordApi) getActivity(ctx echo.Context) error {
	a, err := api.svc.GetActivity(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding activity")
	}
	if err := api.checkVisible(ctx, a.OwnerID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *recordApi) updateActivity(ctx echo.Context) error {
	var data record.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	a, err := api.svc.UpdateActivity(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating activity")
	}
	return ctx.JSON(http.StatusOK, a)
}

// Competency ratings

func (api *recordApi) createCompetencyRating(ctx echo.Context) error {
	var data record.NewCompetencyRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCompetencyRating")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.CreateCompetencyRating(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating competency rating")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *recordApi) getCompetencyRating(ctx echo.Context) error {
	c, err := api.svc.GetCompetencyRating(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding competency rating")
	}
	if err := api.checkVisible(ctx, c.OwnerID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *recordApi) updateCompetencyRating(ctx echo.Context) error {
	var data record.NewCompetencyRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCompetencyRating")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.UpdateCompetencyRating(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating competency rating")
	}
	return ctx.JSON(http.StatusOK, c)
}

// Profile documents

func (api *recordApi) createProfileDocument(ctx echo.Context) error {
	var data record.NewProfileDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfileDocument")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	d, err := api.svc.CreateProfileDocument(ctx.Request().Context(), ctxUsr.ID, ctxUsr.Name, data)
	if err != nil {
		return errors.Wrap(err, "creating profile document")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *recordApi) getProfileDocument(ctx echo.Context) error {
	d, err := api.svc.GetProfileDocument(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding profile document")
	}
	if err := api.checkVisible(ctx, d.OwnerID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *recordApi) updateProfileDocument(ctx echo.Context) error {
	var data record.NewProfileDocument
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfileDocument")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	d, err := api.svc.UpdateProfileDocument(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating profile document")
	}
	return ctx.JSON(http.StatusOK, d)
}
