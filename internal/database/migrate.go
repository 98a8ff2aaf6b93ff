package database

import (
	"context"
	"database/sql"
)

// Migrate creates the schema on boot when it does not exist yet.  The
// statements are idempotent so restarting the server against an
// existing database is safe.
//
// The UNIQUE key on holds.item_id enforces at most one active hold per
// item; the UNIQUE key on orders.order_code backs the receipt lookup.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name          VARCHAR(255) NOT NULL,
			code          VARCHAR(64) NULL,
			category      VARCHAR(128) NULL,
			description   TEXT NULL,
			price_cents   BIGINT NOT NULL DEFAULT 0,
			status        VARCHAR(16) NOT NULL DEFAULT 'available',
			quantity      INT UNSIGNED NOT NULL DEFAULT 1,
			image_path    VARCHAR(512) NULL,
			external_link VARCHAR(512) NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_items_code (code)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS holds (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			session_id VARCHAR(64) NOT NULL,
			item_id    BIGINT UNSIGNED NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_holds_item (item_id),
			KEY idx_holds_expires (expires_at),
			KEY idx_holds_session (session_id),
			CONSTRAINT fk_holds_item FOREIGN KEY (item_id) REFERENCES items (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS orders (
			id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			order_code  VARCHAR(32) NOT NULL,
			name        VARCHAR(255) NOT NULL,
			phone       VARCHAR(64) NOT NULL,
			instagram   VARCHAR(128) NOT NULL,
			notes       TEXT NULL,
			total_cents BIGINT NOT NULL DEFAULT 0,
			status      VARCHAR(16) NOT NULL DEFAULT 'reserved',
			created_at  DATETIME NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_orders_code (order_code)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			order_id    BIGINT UNSIGNED NOT NULL,
			item_id     BIGINT UNSIGNED NOT NULL,
			price_cents BIGINT NOT NULL,
			PRIMARY KEY (id),
			KEY idx_order_items_order (order_id),
			CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id),
			CONSTRAINT fk_order_items_item FOREIGN KEY (item_id) REFERENCES items (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
