package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core/brochure"
)

type brochureApi struct {
	svc brochure.Service
}

func registerBrochureAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc brochure.Service) {
	api := brochureApi{svc: svc}
	admin := adminMiddleware()

	bg := g.Group("/brochures", jwt)

	bg.GET("/types", api.listTypes)
	bg.POST("/types", api.createType, admin)
	bg.PUT("/types/:id", api.updateType, admin)
	bg.DELETE("/types/:id", api.deleteType, admin)
	bg.GET("/types/:id/ups", api.listProgramsByType)

	bg.GET("/categories", api.listCategories)
	bg.POST("/categories", api.createCategory, admin)
	bg.PUT("/categories/:id", api.updateCategory, admin)
	bg.DELETE("/categories/:id", api.deleteCategory, admin)

	bg.GET("/ups", api.listPrograms)
	bg.POST("/ups", api.createProgram, admin)
	bg.GET("/ups/:id", api.retrieveProgram)
	bg.PUT("/ups/:id", api.updateProgram, admin)
	bg.DELETE("/ups/:id", api.deleteProgram, admin)

	bg.GET("/ups/:id/brochures", api.listBrochures)
	bg.POST("/ups/:id/brochures", api.createBrochure, admin)
	bg.PUT("/items/:id", api.updateBrochure, admin)
	bg.DELETE("/items/:id", api.deleteBrochure, admin)
}

// Brochure Types

func (api *brochureApi) listTypes(ctx echo.Context) error {
	types, err := api.svc.ListTypes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying brochure types")
	}
	if types == nil {
		types = []brochure.TypeWithCount{}
	}
	return success(ctx, "Brochure types retrieved successfully", types)
}

func (api *brochureApi) createType(ctx echo.Context) error {
	var data brochure.NewType
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewType")
	}
	typ, err := api.svc.CreateType(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating brochure type")
	}
	return created(ctx, "Brochure type created successfully", typ)
}

func (api *brochureApi) updateType(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data brochure.UpdateType
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateType")
	}
	typ, err := api.svc.UpdateType(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating brochure type")
	}
	return success(ctx, "Brochure type updated successfully", typ)
}

func (api *brochureApi) deleteType(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteType(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting brochure type")
	}
	return success(ctx, "Brochure type and all associated programs and brochures deleted successfully")
}

// Categories

func (api *brochureApi) listCategories(ctx echo.Context) error {
	cats, err := api.svc.ListCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []brochure.Category{}
	}
	return success(ctx, "Categories retrieved successfully", cats)
}

func (api *brochureApi) createCategory(ctx echo.Context) error {
	var data brochure.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return created(ctx, "Category created successfully", cat)
}

func (api *brochureApi) updateCategory(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data brochure.UpdateCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	cat, err := api.svc.UpdateCategory(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return success(ctx, "Category updated successfully", cat)
}

func (api *brochureApi) deleteCategory(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteCategory(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return success(ctx, "Category deleted successfully")
}

// University Programs

func (api *brochureApi) listPrograms(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	ups, err := api.svc.ListPrograms(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying university programs")
	}
	if ups == nil {
		ups = []brochure.ProgramWithCount{}
	}
	return success(ctx, "University programs retrieved successfully", ups)
}

func (api *brochureApi) listProgramsByType(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	typeID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	ups, err := api.svc.ListProgramsByType(ctx.Request().Context(), actor, typeID)
	if err != nil {
		return errors.Wrap(err, "querying university programs by type")
	}
	if ups == nil {
		ups = []brochure.ProgramWithCount{}
	}
	return success(ctx, "University programs for type retrieved successfully", ups)
}

func (api *brochureApi) retrieveProgram(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	up, err := api.svc.GetProgram(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "retrieving university program")
	}
	return success(ctx, "University program retrieved successfully", up)
}

func (api *brochureApi) createProgram(ctx echo.Context) error {
	var data brochure.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	up, err := api.svc.CreateProgram(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating university program")
	}
	return created(ctx, "University program created successfully", up)
}

func (api *brochureApi) updateProgram(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data brochure.UpdateProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgram")
	}
	up, err := api.svc.UpdateProgram(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating university program")
	}
	return success(ctx, "University program updated successfully", up)
}

func (api *brochureApi) deleteProgram(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteProgram(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting university program")
	}
	return success(ctx, "University program and all associated brochures deleted successfully")
}

// Brochures

func (api *brochureApi) listBrochures(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	programID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	items, err := api.svc.ListBrochures(ctx.Request().Context(), actor, programID)
	if err != nil {
		return errors.Wrap(err, "querying brochures")
	}
	if items == nil {
		items = []brochure.Brochure{}
	}
	return success(ctx, "Brochures retrieved successfully", items)
}

func (api *brochureApi) createBrochure(ctx echo.Context) error {
	programID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data brochure.NewBrochure
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBrochure")
	}

	upload, err := api.saveUpload(ctx)
	if err != nil {
		return err
	}
	b, err := api.svc.CreateBrochure(ctx.Request().Context(), programID, data, upload)
	if err != nil {
		api.discard(upload)
		return errors.Wrap(err, "creating brochure")
	}
	return created(ctx, "Brochure created successfully", b)
}

func (api *brochureApi) updateBrochure(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	var data brochure.UpdateBrochure
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBrochure")
	}

	upload, err := api.saveUpload(ctx)
	if err != nil {
		return err
	}
	b, err := api.svc.UpdateBrochure(ctx.Request().Context(), id, data, upload)
	if err != nil {
		api.discard(upload)
		return errors.Wrap(err, "updating brochure")
	}
	return success(ctx, "Brochure updated successfully", b)
}

func (api *brochureApi) deleteBrochure(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteBrochure(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting brochure")
	}
	return success(ctx, "Brochure deleted successfully")
}

// saveUpload parks the optional multipart `file` in the temp dir. It returns nil when no file was sent.
func (api *brochureApi) saveUpload(ctx echo.Context) (*brochure.Upload, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading multipart file")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening multipart file")
	}
	defer src.Close()

	upload, err := api.svc.SaveUpload(src, fh.Filename)
	if err != nil {
		return nil, errors.Wrap(err, "saving upload")
	}
	return &upload, nil
}

// discard drops an upload the service did not place.
func (api *brochureApi) discard(upload *brochure.Upload) {
	if upload != nil {
		api.svc.DiscardUpload(*upload)
	}
}
