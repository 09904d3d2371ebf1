package journal

const (
	queryInsertEntry = `
		INSERT INTO approval_entries (id, request_type, request_id, user_id, asset, amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryResolveEntry = `
		UPDATE approval_entries
		SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'`

	queryListPending = `
		SELECT id, request_type, request_id, user_id, asset, amount, status, created_at, resolved_at
		FROM approval_entries
		WHERE status = 'pending'
		ORDER BY created_at`
)
