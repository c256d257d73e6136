package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

func (s *Store) AddUser(user models.User) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO users (id, name, created_at) VALUES (?, ?, ?)`,
		user.ID, user.Name, storage.FormatTime(user.CreatedAt)); err != nil {
		return translateError(err, "add user "+user.ID)
	}
	if err := saveConfig(tx, user.ID, user.Config); err != nil {
		return err
	}
	for _, token := range user.PushTokens {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO push_tokens (user_id, token, created_at) VALUES (?, ?, ?)`,
			user.ID, token, storage.FormatTime(time.Now())); err != nil {
			return fmt.Errorf("failed to add push token: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) GetUser(id string) (models.User, error) {
	var u models.User
	var createdAt string
	err := s.db.QueryRow(`SELECT id, name, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &createdAt)
	if err != nil {
		return models.User{}, translateError(err, "user "+id)
	}
	if u.CreatedAt, err = storage.ParseTime("created_at", createdAt); err != nil {
		return models.User{}, err
	}
	if err := s.fillUser(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetAllUsers() ([]models.User, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Name, &createdAt); err != nil {
			return nil, err
		}
		if u.CreatedAt, err = storage.ParseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range users {
		if err := s.fillUser(&users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (s *Store) fillUser(u *models.User) error {
	rows, err := s.db.Query(`SELECT key, value FROM user_settings WHERE user_id = ?`, u.ID)
	if err != nil {
		return err
	}
	settings := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			rows.Close()
			return err
		}
		settings[key] = value
	}
	rows.Close()

	if u.Config, err = models.MapToConfig(settings); err != nil {
		return fmt.Errorf("user %s: %w", u.ID, err)
	}

	tokenRows, err := s.db.Query(`SELECT token FROM push_tokens WHERE user_id = ? ORDER BY created_at, token`, u.ID)
	if err != nil {
		return err
	}
	defer tokenRows.Close()
	u.PushTokens = nil
	for tokenRows.Next() {
		var token string
		if err := tokenRows.Scan(&token); err != nil {
			return err
		}
		u.PushTokens = append(u.PushTokens, token)
	}
	return tokenRows.Err()
}

func saveConfig(tx *sql.Tx, userID string, cfg models.UserConfig) error {
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO user_settings (user_id, key, value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, value := range models.ConfigToMap(cfg) {
		if _, err := stmt.Exec(userID, key, value); err != nil {
			return translateError(err, "save settings for user "+userID)
		}
	}
	return nil
}

func (s *Store) UpdateUserConfig(userID string, cfg models.UserConfig) error {
	if _, err := s.GetUser(userID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveConfig(tx, userID, cfg); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddPushToken(userID, token string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO push_tokens (user_id, token, created_at) VALUES (?, ?, ?)`,
		userID, token, storage.FormatTime(time.Now()))
	return translateError(err, "add push token for user "+userID)
}

func (s *Store) RemovePushToken(userID, token string) error {
	result, err := s.db.Exec(`DELETE FROM push_tokens WHERE user_id = ? AND token = ?`, userID, token)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("push token for user %s: %w", userID, storage.ErrNotFound)
	}
	return nil
}
