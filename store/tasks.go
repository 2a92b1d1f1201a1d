package store

import "database/sql"

// Task is a fulfillment party's private work item for an assigned order.
type Task struct {
	ID             int64  `json:"id"`
	UUID           string `json:"uuid"`
	OrderID        int64  `json:"order_id"`
	PartyID        int64  `json:"party_id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`

	// Joined fields
	PartyName  string `json:"party_name"`
	PartyKind  string `json:"party_kind"`
	PartName   string `json:"part_name"`
	PartNumber string `json:"part_number"`
	Quantity   int64  `json:"quantity"`
	Urgency    string `json:"urgency"`
}

const taskSelectCols = `t.id, t.uuid, t.order_id, t.party_id, t.status, t.tracking_number, t.notes,
	t.created_at, t.updated_at,
	COALESCE(p.name, ''), COALESCE(p.kind, ''),
	COALESCE(o.part_name, ''), COALESCE(o.part_number, ''), COALESCE(o.quantity, 0), COALESCE(o.urgency, '')`

const taskJoin = `FROM tasks t
	LEFT JOIN parties p ON p.id = t.party_id
	LEFT JOIN part_orders o ON o.id = t.order_id`

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.UUID, &t.OrderID, &t.PartyID, &t.Status, &t.TrackingNumber, &t.Notes,
			&t.CreatedAt, &t.UpdatedAt,
			&t.PartyName, &t.PartyKind,
			&t.PartName, &t.PartNumber, &t.Quantity, &t.Urgency); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) GetTask(id int64) (*Task, error) {
	t := &Task{}
	err := db.QueryRow(`SELECT `+taskSelectCols+` `+taskJoin+` WHERE t.id = ?`, id).
		Scan(&t.ID, &t.UUID, &t.OrderID, &t.PartyID, &t.Status, &t.TrackingNumber, &t.Notes,
			&t.CreatedAt, &t.UpdatedAt,
			&t.PartyName, &t.PartyKind,
			&t.PartName, &t.PartNumber, &t.Quantity, &t.Urgency)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) GetTaskByUUID(uuid string) (*Task, error) {
	t := &Task{}
	err := db.QueryRow(`SELECT `+taskSelectCols+` `+taskJoin+` WHERE t.uuid = ?`, uuid).
		Scan(&t.ID, &t.UUID, &t.OrderID, &t.PartyID, &t.Status, &t.TrackingNumber, &t.Notes,
			&t.CreatedAt, &t.UpdatedAt,
			&t.PartyName, &t.PartyKind,
			&t.PartName, &t.PartNumber, &t.Quantity, &t.Urgency)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetActiveTaskForOrder returns the task owning an order, if one is active.
func (db *DB) GetActiveTaskForOrder(orderID int64) (*Task, error) {
	t := &Task{}
	err := db.QueryRow(`SELECT `+taskSelectCols+` `+taskJoin+`
		WHERE t.order_id = ? AND t.status NOT IN ('delivered', 'cancelled')`, orderID).
		Scan(&t.ID, &t.UUID, &t.OrderID, &t.PartyID, &t.Status, &t.TrackingNumber, &t.Notes,
			&t.CreatedAt, &t.UpdatedAt,
			&t.PartyName, &t.PartyKind,
			&t.PartName, &t.PartNumber, &t.Quantity, &t.Urgency)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (db *DB) ListTasksForParty(partyID int64) ([]Task, error) {
	rows, err := db.Query(`SELECT `+taskSelectCols+` `+taskJoin+`
		WHERE t.party_id = ?
		ORDER BY t.created_at DESC`, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListActiveTasks returns all tasks not yet in a terminal state, joined with
// their orders. The reconciler sweeps these.
func (db *DB) ListActiveTasks() ([]Task, error) {
	rows, err := db.Query(`SELECT ` + taskSelectCols + ` ` + taskJoin + `
		WHERE t.status NOT IN ('delivered', 'cancelled')
		ORDER BY t.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (db *DB) CreateTask(uuid string, orderID, partyID int64, status string) (int64, error) {
	res, err := db.Exec(`INSERT INTO tasks (uuid, order_id, party_id, status) VALUES (?, ?, ?, ?)`,
		uuid, orderID, partyID, status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateTaskStatusFrom updates the status only when the current status still
// matches expected. Returns false when another writer got there first.
func (db *DB) UpdateTaskStatusFrom(id int64, expected, newStatus string) (bool, error) {
	res, err := db.Exec(`UPDATE tasks SET status=?, updated_at=datetime('now','localtime')
		WHERE id=? AND status=?`, newStatus, id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (db *DB) UpdateTaskStatus(id int64, newStatus string) error {
	_, err := db.Exec(`UPDATE tasks SET status=?, updated_at=datetime('now','localtime') WHERE id=?`, newStatus, id)
	return err
}

func (db *DB) UpdateTaskTracking(id int64, trackingNumber, notes string) error {
	_, err := db.Exec(`UPDATE tasks SET tracking_number=?, notes=?, updated_at=datetime('now','localtime') WHERE id=?`,
		trackingNumber, notes, id)
	return err
}

// CountTasksForOrder counts all tasks (active or not) referencing an order.
func (db *DB) CountTasksForOrder(orderID int64) (int64, error) {
	var n int64
	err := db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE order_id = ? AND status NOT IN ('delivered', 'cancelled')`, orderID).Scan(&n)
	return n, err
}
