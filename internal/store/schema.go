package store

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at_ms INTEGER NOT NULL,
    last_login_at_ms INTEGER
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_username_ci ON accounts(lower(username))`,
	`
CREATE TABLE IF NOT EXISTS hands (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    hand_number INTEGER NOT NULL,
    board TEXT NOT NULL DEFAULT '',
    pot INTEGER NOT NULL,
    winners TEXT NOT NULL DEFAULT '',
    played_at_ms INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_room ON hands(room_id, hand_number DESC)`,
	`
CREATE TABLE IF NOT EXISTS hand_players (
    hand_id TEXT NOT NULL,
    username TEXT NOT NULL,
    seat INTEGER NOT NULL,
    net INTEGER NOT NULL,
    won INTEGER NOT NULL,
    PRIMARY KEY (hand_id, username),
    FOREIGN KEY(hand_id) REFERENCES hands(id) ON DELETE CASCADE
)`,
	`
CREATE TABLE IF NOT EXISTS leaderboard (
    username TEXT PRIMARY KEY,
    hands_played INTEGER NOT NULL DEFAULT 0,
    hands_won INTEGER NOT NULL DEFAULT 0,
    chips_won INTEGER NOT NULL DEFAULT 0,
    net INTEGER NOT NULL DEFAULT 0,
    updated_at_ms INTEGER NOT NULL
)`,
}

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at_ms BIGINT NOT NULL,
    last_login_at_ms BIGINT
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_accounts_username_ci ON accounts(lower(username))`,
	`
CREATE TABLE IF NOT EXISTS hands (
    id TEXT PRIMARY KEY,
    room_id TEXT NOT NULL,
    hand_number INTEGER NOT NULL,
    board TEXT NOT NULL DEFAULT '',
    pot BIGINT NOT NULL,
    winners TEXT NOT NULL DEFAULT '',
    played_at_ms BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_hands_room ON hands(room_id, hand_number DESC)`,
	`
CREATE TABLE IF NOT EXISTS hand_players (
    hand_id TEXT NOT NULL REFERENCES hands(id) ON DELETE CASCADE,
    username TEXT NOT NULL,
    seat INTEGER NOT NULL,
    net BIGINT NOT NULL,
    won BIGINT NOT NULL,
    PRIMARY KEY (hand_id, username)
)`,
	`
CREATE TABLE IF NOT EXISTS leaderboard (
    username TEXT PRIMARY KEY,
    hands_played BIGINT NOT NULL DEFAULT 0,
    hands_won BIGINT NOT NULL DEFAULT 0,
    chips_won BIGINT NOT NULL DEFAULT 0,
    net BIGINT NOT NULL DEFAULT 0,
    updated_at_ms BIGINT NOT NULL
)`,
}
