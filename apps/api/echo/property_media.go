package echoapi

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
	"github.com/janisrealty/janis/core/property"
)

const uploadField = "file"

var errMissingFile = core.NewFieldError(uploadField, "this field is required")

type upload struct {
	r           io.ReadCloser
	filename    string
	contentType string
	size        int64
}

// formUpload opens the multipart file sent under uploadField.
func formUpload(ctx echo.Context) (upload, error) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		if err == http.ErrMissingFile {
			return upload{}, errMissingFile
		}
		return upload{}, errors.Wrap(err, "reading multipart file")
	}
	f, err := fh.Open()
	if err != nil {
		return upload{}, errors.Wrap(err, "opening multipart file")
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" {
		ct = "application/octet-stream"
	}
	return upload{r: f, filename: fh.Filename, contentType: ct, size: fh.Size}, nil
}

func (api *propertyApi) uploaderID(ctx echo.Context) (*int64, error) {
	usr, err := api.user(ctx)
	if err != nil {
		return nil, err
	}
	return &usr.ID, nil
}

// Images

func (api *propertyApi) images(ctx echo.Context) error {
	imgs, err := api.svc.Images(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing images")
	}
	if imgs == nil {
		imgs = []property.Image{}
	}
	return ctx.JSON(http.StatusOK, imgs)
}

func (api *propertyApi) addImage(ctx echo.Context) error {
	uid, err := api.uploaderID(ctx)
	if err != nil {
		return err
	}
	var data property.ImageInput
	if err := bindValid(ctx, &data, api.validate); err != nil {
		return err
	}
	up, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer up.r.Close()
	if !strings.HasPrefix(up.contentType, "image/") {
		return core.NewFieldError(uploadField, "file is not an image")
	}

	img, err := api.svc.AddImage(ctx.Request().Context(), uid, ctxProperty(ctx).ID, data, up.r, up.filename, up.contentType)
	if err != nil {
		return errors.Wrap(err, "adding image")
	}
	return ctx.JSON(http.StatusCreated, img)
}

func (api *propertyApi) setPrimaryImage(ctx echo.Context) error {
	id, err := pathID(ctx, "imageId")
	if err != nil {
		return err
	}
	img, err := api.svc.SetPrimaryImage(ctx.Request().Context(), ctxProperty(ctx).ID, id)
	if err != nil {
		return errors.Wrap(err, "setting primary image")
	}
	return ctx.JSON(http.StatusOK, img)
}

func (api *propertyApi) deleteImage(ctx echo.Context) error {
	id, err := pathID(ctx, "imageId")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteImage(ctx.Request().Context(), ctxProperty(ctx).ID, id); err != nil {
		return errors.Wrap(err, "deleting image")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Videos

func (api *propertyApi) videos(ctx echo.Context) error {
	vids, err := api.svc.Videos(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing videos")
	}
	if vids == nil {
		vids = []property.Video{}
	}
	return ctx.JSON(http.StatusOK, vids)
}

func (api *propertyApi) addVideo(ctx echo.Context) error {
	uid, err := api.uploaderID(ctx)
	if err != nil {
		return err
	}
	var data property.VideoInput
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	up, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer up.r.Close()

	vid, err := api.svc.AddVideo(ctx.Request().Context(), uid, ctxProperty(ctx).ID, data, up.r, up.filename, up.contentType)
	if err != nil {
		return errors.Wrap(err, "adding video")
	}
	return ctx.JSON(http.StatusCreated, vid)
}

func (api *propertyApi) deleteVideo(ctx echo.Context) error {
	id, err := pathID(ctx, "videoId")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteVideo(ctx.Request().Context(), ctxProperty(ctx).ID, id); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Documents

func (api *propertyApi) documents(ctx echo.Context) error {
	docs, err := api.svc.Documents(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing documents")
	}
	if docs == nil {
		docs = []property.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

// formDate parses an optional YYYY-MM-DD form value.
func formDate(ctx echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(ctx.FormValue(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, core.NewFieldError(name, "invalid date, use YYYY-MM-DD")
	}
	return &t, nil
}

func (api *propertyApi) addDocument(ctx echo.Context) error {
	uid, err := api.uploaderID(ctx)
	if err != nil {
		return err
	}
	data := property.DocumentInput{
		DocumentTypeID: formInt64(ctx, "document_type_id"),
		Title:          ctx.FormValue("title"),
		Notes:          ctx.FormValue("notes"),
	}
	if data.ValidFrom, err = formDate(ctx, "valid_from"); err != nil {
		return err
	}
	if data.ValidTo, err = formDate(ctx, "valid_to"); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	up, err := formUpload(ctx)
	if err != nil {
		return err
	}
	defer up.r.Close()

	doc, err := api.svc.AddDocument(ctx.Request().Context(), uid, ctxProperty(ctx).ID, data, up.r, up.filename, up.contentType)
	if err != nil {
		return errors.Wrap(err, "adding document")
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *propertyApi) approveDocument(ctx echo.Context) error {
	id, err := pathID(ctx, "documentId")
	if err != nil {
		return err
	}
	doc, err := api.svc.ApproveDocument(ctx.Request().Context(), ctxProperty(ctx).ID, id)
	if err != nil {
		return errors.Wrap(err, "approving document")
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *propertyApi) deleteDocument(ctx echo.Context) error {
	id, err := pathID(ctx, "documentId")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteDocument(ctx.Request().Context(), ctxProperty(ctx).ID, id); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Rooms

func (api *propertyApi) rooms(ctx echo.Context) error {
	rooms, err := api.svc.Rooms(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "listing rooms")
	}
	if rooms == nil {
		rooms = []property.Room{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *propertyApi) addRoom(ctx echo.Context) error {
	var data property.Room
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	room, err := api.svc.AddRoom(ctx.Request().Context(), ctxProperty(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "adding room")
	}
	return ctx.JSON(http.StatusCreated, room)
}

func (api *propertyApi) deleteRoom(ctx echo.Context) error {
	id, err := pathID(ctx, "roomId")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteRoom(ctx.Request().Context(), ctxProperty(ctx).ID, id); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Financial info

func (api *propertyApi) financialInfo(ctx echo.Context) error {
	fi, err := api.svc.FinancialInfo(ctx.Request().Context(), ctxProperty(ctx).ID)
	if err != nil {
		return errors.Wrap(err, "getting financial info")
	}
	return ctx.JSON(http.StatusOK, fi)
}

func (api *propertyApi) saveFinancialInfo(ctx echo.Context) error {
	var data property.FinancialInfo
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	fi, err := api.svc.SaveFinancialInfo(ctx.Request().Context(), ctxProperty(ctx).ID, data)
	if err != nil {
		return errors.Wrap(err, "saving financial info")
	}
	return ctx.JSON(http.StatusOK, fi)
}
