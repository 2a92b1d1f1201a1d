package store

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'technician',
    party_id      INTEGER REFERENCES parties(id) ON DELETE SET NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS parties (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    kind           TEXT NOT NULL,
    name           TEXT NOT NULL UNIQUE,
    contact_email  TEXT NOT NULL DEFAULT '',
    contact_phone  TEXT NOT NULL DEFAULT '',
    brands         TEXT NOT NULL DEFAULT '',
    priority       INTEGER NOT NULL DEFAULT 5,
    active         INTEGER NOT NULL DEFAULT 1,
    created_at     TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS part_orders (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid              TEXT NOT NULL UNIQUE,
    part_name         TEXT NOT NULL,
    part_number       TEXT NOT NULL DEFAULT '',
    quantity          INTEGER NOT NULL DEFAULT 1,
    description       TEXT NOT NULL DEFAULT '',
    urgency           TEXT NOT NULL DEFAULT 'normal',
    warranty          TEXT NOT NULL DEFAULT 'out_of_warranty',
    status            TEXT NOT NULL DEFAULT 'pending',
    service_id        INTEGER,
    technician_id     INTEGER,
    estimated_cost    TEXT,
    actual_cost       TEXT,
    supplier_party_id INTEGER REFERENCES parties(id),
    partner_party_id  INTEGER REFERENCES parties(id),
    admin_notes       TEXT NOT NULL DEFAULT '',
    supplier_notes    TEXT NOT NULL DEFAULT '',
    ordered_at        TEXT,
    received_at       TEXT,
    created_at        TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    CHECK (supplier_party_id IS NULL OR partner_party_id IS NULL)
);
CREATE INDEX IF NOT EXISTS idx_part_orders_status ON part_orders(status);
CREATE INDEX IF NOT EXISTS idx_part_orders_service ON part_orders(service_id);
CREATE INDEX IF NOT EXISTS idx_part_orders_technician ON part_orders(technician_id);

CREATE TABLE IF NOT EXISTS order_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id   INTEGER NOT NULL REFERENCES part_orders(id),
    old_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    actor      TEXT NOT NULL DEFAULT '',
    detail     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS tasks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid            TEXT NOT NULL UNIQUE,
    order_id        INTEGER NOT NULL REFERENCES part_orders(id),
    party_id        INTEGER NOT NULL REFERENCES parties(id),
    status          TEXT NOT NULL DEFAULT 'pending',
    tracking_number TEXT NOT NULL DEFAULT '',
    notes           TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_tasks_party ON tasks(party_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_active_order ON tasks(order_id)
    WHERE status NOT IN ('delivered', 'cancelled');

CREATE TABLE IF NOT EXISTS stock_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    part_name     TEXT NOT NULL,
    part_number   TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL DEFAULT 0,
    unit_cost     TEXT,
    location      TEXT NOT NULL DEFAULT '',
    warranty      TEXT NOT NULL DEFAULT 'out_of_warranty',
    order_id      INTEGER UNIQUE REFERENCES part_orders(id),
    service_id    INTEGER,
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS allocations (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    stock_item_id INTEGER NOT NULL REFERENCES stock_items(id),
    service_id    INTEGER NOT NULL,
    technician_id INTEGER NOT NULL,
    quantity      INTEGER NOT NULL,
    allocated_by  TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'allocated',
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_allocations_stock ON allocations(stock_item_id);
CREATE INDEX IF NOT EXISTS idx_allocations_technician ON allocations(technician_id);

CREATE TABLE IF NOT EXISTS activity_log (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    stock_item_id INTEGER NOT NULL REFERENCES stock_items(id),
    action        TEXT NOT NULL,
    prev_quantity INTEGER NOT NULL,
    new_quantity  INTEGER NOT NULL,
    actor         TEXT NOT NULL DEFAULT '',
    service_id    INTEGER,
    detail        TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS outbox (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    topic      TEXT NOT NULL,
    payload    BLOB NOT NULL,
    msg_type   TEXT NOT NULL DEFAULT '',
    order_id   INTEGER,
    retries    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at    TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`

func (db *DB) migrate() error {
	_, err := db.Exec(schema)
	if err != nil {
		return err
	}
	// Graceful migrations for existing DBs
	db.Exec("ALTER TABLE tasks ADD COLUMN tracking_number TEXT NOT NULL DEFAULT ''")
	db.Exec("ALTER TABLE outbox ADD COLUMN order_id INTEGER")
	return nil
}
