package repository

const (
	taskColumns = `task_id, state, progress, script, terms, audio_file, audio_duration, subtitle_path,
					materials, combined_videos, videos, error, created_at, updated_at`

	createTaskQuery = `INSERT INTO tasks (task_id, state, progress, created_at, updated_at)
					VALUES ($1, $2, $3, now(), now()) RETURNING ` + taskColumns
	getTaskByIDQuery = `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1`
	lockTaskQuery    = `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1 FOR UPDATE`
	updateTaskQuery  = `UPDATE tasks
					SET state = $2, progress = GREATEST(progress, $3), script = $4, terms = $5,
					    audio_file = $6, audio_duration = $7, subtitle_path = $8, materials = $9,
					    combined_videos = $10, videos = $11, error = $12, updated_at = now()
					WHERE task_id = $1 RETURNING ` + taskColumns
	getTotalTasksQuery  = `SELECT COUNT(task_id) FROM tasks`
	getTasksNewestQuery = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, task_id OFFSET $1 LIMIT $2`
	getTasksOldestQuery = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at ASC, task_id OFFSET $1 LIMIT $2`
	deleteTaskQuery     = `DELETE FROM tasks WHERE task_id = $1`
)
