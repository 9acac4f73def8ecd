package images

import (
	"net/http"

	"github.com/anoixa/clone-gallery/api/common"
	"github.com/anoixa/clone-gallery/api/middleware"
	"github.com/anoixa/clone-gallery/internal/errs"
	imagesvc "github.com/anoixa/clone-gallery/internal/services/image"
	"github.com/gin-gonic/gin"
)

// UploadImage 处理单图片上传
// @Summary      Upload image
// @Description  Upload one image with optional metadata. Admin and Editor only.
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Param        file      formData  file    true   "Image file"
// @Param        title     formData  string  false  "Title, defaults to the file name"
// @Param        caption   formData  string  false  "Caption"
// @Param        alt_text  formData  string  false  "Alt text"
// @Param        privacy   formData  string  false  "public or private"
// @Param        tags      formData  string  false  "Comma separated tags"
// @Success      201  {object}  common.Response  "Image created"
// @Failure      400  {object}  common.Response  "Invalid file or metadata"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Role may not upload"
// @Failure      500  {object}  common.Response  "Storage failure"
// @Security     BearerAuth
// @Router       /v1/images [post]
func (h *Handler) UploadImage(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	files := form.File["file"]
	if len(files) == 0 {
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}
	if len(files) > 1 {
		common.RespondError(c, http.StatusBadRequest, "Only one file is allowed for single upload")
		return
	}

	meta, err := readMetadata(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	data, err := readFile(files[0], h.uploader.Options().MaxBytes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	image, err := h.uploader.Upload(c.Request.Context(), middleware.GetRequester(c), meta.input(files[0], data))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondCreated(c, image)
}

// UploadImages 处理多图片上传
// @Summary      Batch upload images
// @Description  Upload several images sharing the same metadata. Each file succeeds or fails on its own.
// @Tags         images
// @Accept       multipart/form-data
// @Produce      json
// @Param        files     formData  file    true   "Image files"
// @Param        privacy   formData  string  false  "public or private"
// @Param        tags      formData  string  false  "Comma separated tags"
// @Success      200  {object}  common.Response  "Per-file results"
// @Failure      400  {object}  common.Response  "No files or too many files"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Role may not upload"
// @Security     BearerAuth
// @Router       /v1/images/batch [post]
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		common.RespondError(c, http.StatusBadRequest, "At least one file is required under the 'files' key")
		return
	}
	requester := middleware.GetRequester(c)
	if err := imagesvc.AuthorizeUpload(requester); err != nil {
		common.RespondAppError(c, err)
		return
	}
	if limit := h.uploader.Options().BatchLimit; len(files) > limit {
		common.RespondAppError(c, errs.Invalid("files", "too many files in one batch"))
		return
	}

	meta, err := readMetadata(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	// 单张图片的标题在批量上传中没有意义，使用各自的文件名
	meta.Title = ""

	inputs := make([]imagesvc.UploadInput, 0, len(files))
	var readErrors []*imagesvc.UploadResult
	for _, fh := range files {
		data, err := readFile(fh, h.uploader.Options().MaxBytes)
		if err != nil {
			readErrors = append(readErrors, &imagesvc.UploadResult{FileName: fh.Filename, Error: imagesvc.PublicError(err)})
			continue
		}
		inputs = append(inputs, meta.input(fh, data))
	}

	var results []*imagesvc.UploadResult
	if len(inputs) > 0 {
		results, err = h.uploader.UploadBatch(c.Request.Context(), requester, inputs)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
	}
	results = append(results, readErrors...)

	successCount := 0
	for _, r := range results {
		if r.Error == "" {
			successCount++
		}
	}

	common.RespondSuccess(c, gin.H{
		"total_files":   len(files),
		"success_count": successCount,
		"error_count":   len(results) - successCount,
		"results":       results,
	})
}
