package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/assignment"
)

type assignmentApi struct {
	svc assignment.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assignment.Service) {
	api := assignmentApi{svc: svc}

	ag := g.Group("/agent-university", jwt, adminMiddleware())
	ag.POST("/univerity-broucher-bulk-assign", api.bulkAssign)
	ag.GET("/stats/assignment-counts", api.counts)
	ag.GET("/university/:universityId/agents", api.agents)
	ag.POST("/university/:universityId/sync-agents", api.syncAgents)
}

// Handlers

func (api *assignmentApi) bulkAssign(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	var data assignment.BulkAssign
	if err := ctx.Bind(&data); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "universityIds", Error: "University IDs and Agent IDs must be arrays"})
	}

	n, err := api.svc.BulkAssign(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "bulk assigning agents")
	}
	return success(ctx, "Bulk assignment completed successfully", BulkAssignResponse{Created: n})
}

func (api *assignmentApi) counts(ctx echo.Context) error {
	counts, err := api.svc.Counts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting assignments")
	}
	if counts == nil {
		counts = []assignment.ProgramCount{}
	}
	return success(ctx, "Assignment counts retrieved successfully", counts)
}

func (api *assignmentApi) agents(ctx echo.Context) error {
	programID, err := pathID(ctx, "universityId")
	if err != nil {
		return err
	}
	agents, err := api.svc.AgentsForProgram(ctx.Request().Context(), programID)
	if err != nil {
		return errors.Wrap(err, "querying assigned agents")
	}
	if agents == nil {
		agents = []assignment.AssignedAgent{}
	}
	return success(ctx, "Assigned agents retrieved successfully", agents)
}

func (api *assignmentApi) syncAgents(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	programID, err := pathID(ctx, "universityId")
	if err != nil {
		return err
	}

	var data assignment.SyncAgents
	if err := ctx.Bind(&data); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "agentIds", Error: "Agent IDs must be an array"})
	}

	res, err := api.svc.Sync(ctx.Request().Context(), actor, programID, data.AgentIDs)
	if err != nil {
		return errors.Wrap(err, "syncing agents")
	}
	return success(ctx, "Agents synced successfully", res)
}

type BulkAssignResponse struct {
	Created int `json:"created"`
}
