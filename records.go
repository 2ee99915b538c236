package main

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mmdigital/analytics_backend/config"
	"github.com/mmdigital/analytics_backend/importer"
	"github.com/mmdigital/analytics_backend/models"
	"github.com/mmdigital/analytics_backend/models/exports"
	"github.com/mmdigital/analytics_backend/utils"
	"github.com/sirupsen/logrus"
)

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

var allowedUploadExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

var uploadContentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".csv":  "text/csv",
}

// bindRecordFilter binds listing/export query parameters and writes the
// 400 response itself, itemizing field errors when validation failed.
func bindRecordFilter(c *gin.Context) (*models.RecordFilter, bool) {
	var filter models.RecordFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "invalid query parameters",
				"fields": utils.ProcessValidationErrors(err),
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return nil, false
	}
	return &filter, true
}

func listRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindRecordFilter(c)
		if !ok {
			return
		}

		page, err := models.GetAnalyticsRecords(c.Request.Context(), filter)
		if err != nil {
			config.LogError(config.GetLogger(), "records.go", "listRecordsHandler", "GetAnalyticsRecords", filter, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
			return
		}

		// Option lists ride along so the listing UI can populate its
		// filter dropdowns in one round trip.
		options, err := models.GetFilterOptions(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "records.go", "listRecordsHandler", "GetFilterOptions", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch records"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": page, "filter_options": options})
	}
}

func importRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		files := form.File["files[]"]
		if len(files) == 0 {
			files = form.File["files"]
		}
		if len(files) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
			return
		}

		for _, fh := range files {
			if fh.Size > maxUploadSizeBytes {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("%s exceeds the 10MB limit", fh.Filename),
				})
				return
			}
			ext := strings.ToLower(filepath.Ext(fh.Filename))
			if !allowedUploadExtensions[ext] {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": fmt.Sprintf("%s has an unsupported extension (want xlsx, xls or csv)", fh.Filename),
				})
				return
			}
		}

		var totalCreated, totalUpdated, totalSkipped, totalFailed int
		var diagnostics []importer.Diagnostic
		var results []*importer.SessionResult

		for _, fh := range files {
			data, err := readUpload(fh)
			if err != nil {
				config.LogError(logger, "records.go", "importRecordsHandler", "readUpload", fh.Filename, err)
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to read %s", fh.Filename)})
				return
			}

			archiveUpload(c, fh.Filename, data)

			rows, err := importer.ParseRows(data)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %v", fh.Filename, err)})
				return
			}

			result, err := importer.RunImport(c.Request.Context(), models.Store{}, fh.Filename, rows)
			if err != nil {
				config.LogError(logger, "records.go", "importRecordsHandler", "RunImport", fh.Filename, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to import %s", fh.Filename)})
				return
			}

			totalCreated += result.Created
			totalUpdated += result.Updated
			totalSkipped += result.Skipped
			totalFailed += result.Failed
			diagnostics = append(diagnostics, result.Diagnostics...)
			results = append(results, result)
		}

		message := fmt.Sprintf("Import complete: %d created, %d updated, %d skipped, %d failed.",
			totalCreated, totalUpdated, totalSkipped, totalFailed)
		if totalCreated == 0 && totalUpdated == 0 {
			message = "No records were imported or updated."
		}

		c.JSON(http.StatusOK, gin.H{
			"message":     message,
			"created":     totalCreated,
			"updated":     totalUpdated,
			"skipped":     totalSkipped,
			"failed":      totalFailed,
			"files":       results,
			"diagnostics": diagnostics,
		})
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadSizeBytes+1))
}

// archiveUpload copies the raw file to object storage before the import
// touches it. Archiving is best-effort: failures are logged, never fatal.
func archiveUpload(c *gin.Context, filename string, data []byte) {
	if !utils.GCSArchiveEnabled() {
		return
	}
	logger := config.GetLogger()
	ext := strings.ToLower(filepath.Ext(filename))
	objectName := "imports/" + uuid.New().String() + ext
	contentType := uploadContentTypes[ext]
	if err := utils.UploadBytesToGCS(c.Request.Context(), objectName, data, contentType); err != nil {
		config.LogError(logger, "records.go", "archiveUpload", "UploadBytesToGCS", filename, err)
		return
	}
	logger.WithFields(logrus.Fields{
		"file":       filename,
		"object_key": objectName,
	}).Info("archived upload")
}

func deleteRecordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
			return
		}

		record, err := models.DeleteAnalyticsRecord(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
				return
			}
			config.LogError(config.GetLogger(), "records.go", "deleteRecordHandler", "DeleteAnalyticsRecord", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete record"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Record deleted.", "record": record})
	}
}

func clearRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.ClearAnalyticsRecords(c.Request.Context()); err != nil {
			config.LogError(config.GetLogger(), "records.go", "clearRecordsHandler", "ClearAnalyticsRecords", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear records"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "All records cleared."})
	}
}

func statsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := models.GetAnalyticsStats(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "records.go", "statsHandler", "GetAnalyticsStats", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": stats})
	}
}

func filterOptionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		options, err := models.GetFilterOptions(c.Request.Context())
		if err != nil {
			config.LogError(config.GetLogger(), "records.go", "filterOptionsHandler", "GetFilterOptions", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch filter options"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": options})
	}
}

func exportRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindRecordFilter(c)
		if !ok {
			return
		}

		records, err := models.ExportAnalyticsRecords(c.Request.Context(), filter)
		if err != nil {
			config.LogError(config.GetLogger(), "records.go", "exportRecordsHandler", "ExportAnalyticsRecords", filter, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export records"})
			return
		}

		buf, err := exports.WriteRecordsExcel(records)
		if err != nil {
			config.LogError(config.GetLogger(), "records.go", "exportRecordsHandler", "WriteRecordsExcel", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export file"})
			return
		}

		filename := exports.ExportFilename(time.Now())
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	}
}
