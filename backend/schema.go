package backend

import (
	"database/sql"

	"github.com/apex/log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		points INT NOT NULL DEFAULT 0,
		PRIMARY KEY (id),
		UNIQUE KEY uniq_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id INT NOT NULL AUTO_INCREMENT,
		user_id INT NOT NULL,
		image LONGBLOB NOT NULL,
		created_at DATETIME NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Pending',
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		description VARCHAR(512) NOT NULL DEFAULT '',
		issue_type VARCHAR(128) NOT NULL DEFAULT '',
		points INT NOT NULL DEFAULT 0,
		PRIMARY KEY (id),
		KEY idx_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS rewards (
		id INT NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		point_cost INT NOT NULL,
		value DECIMAL(10,2) NOT NULL DEFAULT 0,
		icon VARCHAR(64) NOT NULL DEFAULT '',
		PRIMARY KEY (id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_rewards (
		user_id INT NOT NULL,
		reward_id INT NOT NULL,
		bought_at DATETIME NOT NULL,
		KEY idx_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS push_tokens (
		user_id INT NOT NULL,
		token VARCHAR(512) NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (user_id)
	)`,
}

func createTables(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Errorf("Schema statement failed: %v", err)
			return err
		}
	}
	return nil
}
