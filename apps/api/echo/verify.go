package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/verify"
)

// verifyApi is the reviewer-facing surface: the cross-kind review queue,
// pending counts and status transitions.
type verifyApi struct {
	svc *verify.Service
}

func registerVerifyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *verify.Service) {
	api := verifyApi{svc: svc}

	vg := g.Group("/verifiable", jwt)
	vg.GET("", api.list)
	vg.GET("/counts", api.counts)
	vg.PUT("/:kind/:id/status", api.setStatus, reviewerMiddleware())
}

func (api *verifyApi) list(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	kind := record.KindAll
	if val := ctx.QueryParam("kind"); val != "" {
		kind = record.Kind(val)
	}
	var statusFilter *record.Status
	if val := ctx.QueryParam("status"); val != "" {
		status := record.Status(val)
		statusFilter = &status
	}

	listing, err := api.svc.List(ctx.Request().Context(), claims.Actor(), kind, statusFilter, ctx.QueryParam("owner"))
	if err != nil {
		return errors.Wrap(err, "listing verifiable records")
	}
	return ctx.JSON(http.StatusOK, listing)
}

func (api *verifyApi) counts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	counts, err := api.svc.CountPending(ctx.Request().Context(), claims.Actor())
	if err != nil {
		return errors.Wrap(err, "counting pending records")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *verifyApi) setStatus(ctx echo.Context) error {
	var change verify.StatusChange
	if err := ctx.Bind(&change); err != nil {
		return errors.Wrap(err, "binding to StatusChange")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	ver, err := api.svc.SetStatus(ctx.Request().Context(), claims.Actor(), record.Kind(ctx.Param("kind")), ctx.Param("id"), change)
	if err != nil {
		return errors.Wrap(err, "setting verification status")
	}
	return ctx.JSON(http.StatusOK, ver)
}
