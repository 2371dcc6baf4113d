package indexdb

import (
	"context"
	"database/sql"
)

type SnapshotRecord struct {
	Tick     int64  `json:"tick"`
	Path     string `json:"path"`
	Seed     int64  `json:"seed"`
	GridSize int    `json:"grid_size"`
	Players  int    `json:"players"`
	Alive    int    `json:"alive"`
	Food     [2]int `json:"food"`
	Digest   string `json:"digest"`
}

type DeathRecord struct {
	Tick     int64  `json:"tick"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Cause    string `json:"cause"`
	Score    int    `json:"score"`
	Length   int    `json:"length"`
	Head     [2]int `json:"head"`
}

type LeaderboardRow struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	BestScore int    `json:"best_score"`
	Deaths    int    `json:"deaths"`
}

type CauseCount struct {
	Cause string `json:"cause"`
	Count int    `json:"count"`
}

// OpenReader opens an index database for the query helpers below. It does
// not start a writer.
func OpenReader(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func LatestSnapshots(ctx context.Context, db *sql.DB, limit int) ([]SnapshotRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT tick,path,seed,grid_size,players,alive,food_x,food_z,digest FROM snapshots ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SnapshotRecord
	for rows.Next() {
		var r SnapshotRecord
		if err := rows.Scan(&r.Tick, &r.Path, &r.Seed, &r.GridSize, &r.Players, &r.Alive, &r.Food[0], &r.Food[1], &r.Digest); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func RecentDeaths(ctx context.Context, db *sql.DB, limit int) ([]DeathRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT d.tick, d.player_id, COALESCE(j.name, ''), d.cause, d.score, d.length, d.x, d.z
		FROM deaths d
		LEFT JOIN joins j ON j.player_id = d.player_id
		ORDER BY d.tick DESC, d.player_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DeathRecord
	for rows.Next() {
		var r DeathRecord
		if err := rows.Scan(&r.Tick, &r.PlayerID, &r.Name, &r.Cause, &r.Score, &r.Length, &r.Head[0], &r.Head[1]); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Leaderboard ranks players by the best score they held when dying.
func Leaderboard(ctx context.Context, db *sql.DB, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx, `
		SELECT d.player_id, COALESCE(MAX(j.name), ''), MAX(d.score), COUNT(*)
		FROM deaths d
		LEFT JOIN joins j ON j.player_id = d.player_id
		GROUP BY d.player_id
		ORDER BY MAX(d.score) DESC, d.player_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.PlayerID, &r.Name, &r.BestScore, &r.Deaths); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func DeathCauses(ctx context.Context, db *sql.DB) ([]CauseCount, error) {
	rows, err := db.QueryContext(ctx, `SELECT cause, COUNT(*) FROM deaths GROUP BY cause ORDER BY COUNT(*) DESC, cause`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CauseCount
	for rows.Next() {
		var r CauseCount
		if err := rows.Scan(&r.Cause, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
