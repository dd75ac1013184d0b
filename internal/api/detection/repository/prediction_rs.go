package detectionRepository

import (
	"TakaDetect/internal/entity"
	contextPkg "TakaDetect/pkg/context"
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type predictionRepository struct {
	q   SQLExecutor
	log *logrus.Logger
}

type PredictionDB struct {
	ID            sql.NullString  `db:"id"`
	FileName      sql.NullString  `db:"file_name"`
	Threshold     sql.NullFloat64 `db:"threshold"`
	NumDetections sql.NullInt64   `db:"num_detections"`
	Detections    sql.NullString  `db:"detections"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r *predictionRepository) CreatePrediction(c context.Context, record entity.PredictionRecord) error {
	requestID := contextPkg.GetRequestID(c)
	argsKV := map[string]interface{}{
		"id":             record.ID,
		"file_name":      record.FileName,
		"threshold":      record.Threshold,
		"num_detections": record.NumDetections,
		"detections":     record.Detections,
		"created_at":     record.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreatePrediction, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreatePrediction")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating prediction record")

		return err
	}

	return nil
}

func (r *predictionRepository) GetRecentPredictions(c context.Context, limit int) ([]entity.PredictionRecord, error) {
	requestID := contextPkg.GetRequestID(c)

	argsKV := map[string]interface{}{
		"limit": limit,
	}

	query, args, err := sqlx.Named(queryGetRecentPredictions, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetRecentPredictions named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []PredictionDB
	if err := r.q.SelectContext(c, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when fetching recent predictions")
		return nil, err
	}

	records := make([]entity.PredictionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, entity.PredictionRecord{
			ID:            row.ID.String,
			FileName:      row.FileName.String,
			Threshold:     row.Threshold.Float64,
			NumDetections: int(row.NumDetections.Int64),
			Detections:    row.Detections.String,
			CreatedAt:     row.CreatedAt,
		})
	}

	return records, nil
}
