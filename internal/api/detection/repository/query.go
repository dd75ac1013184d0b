package detectionRepository

const queryCreatePrediction = `
INSERT INTO predictions (
	id,
	file_name,
	threshold,
	num_detections,
	detections,
	created_at
) VALUES (
	:id,
	:file_name,
	:threshold,
	:num_detections,
	:detections,
	:created_at
)
`

const queryGetRecentPredictions = `
SELECT
	id,
	file_name,
	threshold,
	num_detections,
	detections,
	created_at
FROM predictions
ORDER BY created_at DESC
LIMIT :limit
`
