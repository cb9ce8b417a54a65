// Package drivers управляет водителями парка: регистрацией, позывными, флагами.
// models.go описывает структуры данных для работы с таблицей drivers.
package drivers

import "time"

// Driver представляет водителя парка в базе данных.
// Каждый пользователь, вступивший в PARK_CHAT_ID, автоматически
// создаётся в этой таблице.
type Driver struct {
	ID        int64     `db:"id"`         // Автоинкрементный ID записи в БД
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя водителя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	CallSign  *string   `db:"call_sign"`  // Позывной в парке (до 64 символов, может быть nil)
	IsBanned  bool      `db:"is_banned"`  // Флаг отстранения от программы
	JoinedAt  time.Time `db:"joined_at"`  // Когда вступил в чат парка
	CreatedAt time.Time `db:"created_at"` // Когда запись создана в БД
	UpdatedAt time.Time `db:"updated_at"` // Последнее обновление записи
}

// UpdateInfo содержит данные для обновления информации о водителе.
// Используется, когда водитель возвращается в чат и его имя/username
// могли измениться.
type UpdateInfo struct {
	Username  string // Новый @username
	FirstName string // Новое имя
	LastName  string // Новая фамилия
}

// DisplayName возвращает отображаемое имя водителя.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (d *Driver) DisplayName() string {
	if d.Username != "" {
		return "@" + d.Username
	}
	name := d.FirstName
	if d.LastName != "" {
		name += " " + d.LastName
	}
	return name
}
