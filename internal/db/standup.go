package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/amirhmoradi/standup-bot/internal/standup"
)

var _ standup.Store = (*DB)(nil)

// Answer fields map to fixed columns; anything else is rejected before it
// reaches the query text.
var answerColumns = map[string]string{
	standup.FieldYday:     "yday",
	standup.FieldToday:    "today",
	standup.FieldBlockers: "blockers",
}

// Room loads one room's configuration. A room nobody has touched yet
// reads as an empty configuration, not an error.
func (db *DB) Room(ctx context.Context, roomID string) (standup.RoomConfig, error) {
	cfg := standup.RoomConfig{RoomID: roomID, Members: make(map[string]string)}

	var minute, hour *int
	var weekdays *string
	err := db.pool.QueryRow(ctx,
		"SELECT minute, hour, weekdays FROM standup_rooms WHERE room_id = $1",
		roomID,
	).Scan(&minute, &hour, &weekdays)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// fall through, roster may still exist
	case err != nil:
		return cfg, fmt.Errorf("load room %s: %w", roomID, err)
	default:
		cfg.Rule = decodeRule(roomID, minute, hour, weekdays)
	}

	rows, err := db.pool.Query(ctx,
		"SELECT member_id, member_name FROM standup_members WHERE room_id = $1",
		roomID,
	)
	if err != nil {
		return cfg, fmt.Errorf("load roster for room %s: %w", roomID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID, name string
		if err := rows.Scan(&memberID, &name); err != nil {
			return cfg, err
		}
		cfg.Members[memberID] = name
	}
	return cfg, rows.Err()
}

// AllRooms loads every room configuration, rosters included. Used once at
// startup to rebuild schedules.
func (db *DB) AllRooms(ctx context.Context) ([]standup.RoomConfig, error) {
	rows, err := db.pool.Query(ctx,
		"SELECT room_id, minute, hour, weekdays FROM standup_rooms ORDER BY room_id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byRoom := make(map[string]*standup.RoomConfig)
	var order []string
	for rows.Next() {
		var roomID string
		var minute, hour *int
		var weekdays *string
		if err := rows.Scan(&roomID, &minute, &hour, &weekdays); err != nil {
			return nil, err
		}
		byRoom[roomID] = &standup.RoomConfig{
			RoomID:  roomID,
			Members: make(map[string]string),
			Rule:    decodeRule(roomID, minute, hour, weekdays),
		}
		order = append(order, roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	memberRows, err := db.pool.Query(ctx,
		"SELECT room_id, member_id, member_name FROM standup_members",
	)
	if err != nil {
		return nil, err
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var roomID, memberID, name string
		if err := memberRows.Scan(&roomID, &memberID, &name); err != nil {
			return nil, err
		}
		cfg, ok := byRoom[roomID]
		if !ok {
			cfg = &standup.RoomConfig{RoomID: roomID, Members: make(map[string]string)}
			byRoom[roomID] = cfg
			order = append(order, roomID)
		}
		cfg.Members[memberID] = name
	}
	if err := memberRows.Err(); err != nil {
		return nil, err
	}

	configs := make([]standup.RoomConfig, 0, len(order))
	for _, roomID := range order {
		configs = append(configs, *byRoom[roomID])
	}
	return configs, nil
}

func (db *DB) AddMember(ctx context.Context, roomID, memberID, name string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO standup_members (room_id, member_id, member_name) VALUES ($1, $2, $3)
		ON CONFLICT (room_id, member_id) DO UPDATE SET member_name = EXCLUDED.member_name`,
		roomID, memberID, name,
	)
	return err
}

func (db *DB) RemoveMember(ctx context.Context, roomID, memberID string) error {
	_, err := db.pool.Exec(ctx,
		"DELETE FROM standup_members WHERE room_id = $1 AND member_id = $2",
		roomID, memberID,
	)
	return err
}

func (db *DB) SetRule(ctx context.Context, roomID string, rule standup.Rule) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO standup_rooms (room_id, minute, hour, weekdays, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
		ON CONFLICT (room_id) DO UPDATE
		SET minute = EXCLUDED.minute, hour = EXCLUDED.hour,
			weekdays = EXCLUDED.weekdays, updated_at = CURRENT_TIMESTAMP`,
		roomID, rule.Minute, rule.Hour, encodeWeekdays(rule.Weekdays),
	)
	return err
}

func (db *DB) ClearRule(ctx context.Context, roomID string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE standup_rooms
		SET minute = NULL, hour = NULL, weekdays = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE room_id = $1`,
		roomID,
	)
	return err
}

// MergeAnswer upserts a single answer column, leaving the member's other
// answers from this or earlier cycles untouched.
func (db *DB) MergeAnswer(ctx context.Context, roomID, memberID, field, text string) error {
	col, ok := answerColumns[field]
	if !ok {
		return fmt.Errorf("unknown answer field %q", field)
	}
	query := fmt.Sprintf(
		`INSERT INTO standup_interviews (room_id, member_id, %s, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (room_id, member_id) DO UPDATE
		SET %s = EXCLUDED.%s, updated_at = CURRENT_TIMESTAMP`,
		col, col, col,
	)
	_, err := db.pool.Exec(ctx, query, roomID, memberID, text)
	return err
}

func (db *DB) Interview(ctx context.Context, roomID, memberID string) (standup.Interview, error) {
	var rec standup.Interview
	err := db.pool.QueryRow(ctx,
		"SELECT yday, today, blockers FROM standup_interviews WHERE room_id = $1 AND member_id = $2",
		roomID, memberID,
	).Scan(&rec.Yday, &rec.Today, &rec.Blockers)
	if errors.Is(err, pgx.ErrNoRows) {
		return standup.Interview{}, nil
	}
	if err != nil {
		return rec, fmt.Errorf("load interview for %s in room %s: %w", memberID, roomID, err)
	}
	return rec, nil
}

func encodeWeekdays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// decodeRule turns the stored columns back into a rule. A half-written or
// unparsable row reads as "not scheduled" so one corrupt record cannot
// block startup restoration for other rooms.
func decodeRule(roomID string, minute, hour *int, weekdays *string) *standup.Rule {
	if minute == nil || hour == nil || weekdays == nil {
		return nil
	}
	var days []int
	for _, part := range strings.Split(*weekdays, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 1 || d > 7 {
			log.Printf("db: room %s has corrupt weekdays %q, treating as unscheduled", roomID, *weekdays)
			return nil
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil
	}
	return &standup.Rule{Minute: *minute, Hour: *hour, Weekdays: days}
}
