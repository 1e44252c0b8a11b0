package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tarinagarwal/Skribbl-production/domain"
)

// PostgresRepo is the durable side of the game: rooms, participants, scores,
// the chat log and the word catalog. Live rooms stay authoritative in memory;
// everything here is read on rehydration and written best-effort.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func wrapDB(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.DatabaseError, err)
}

// nullIfEmpty maps the in-memory "no owner yet" zero value onto a SQL NULL so
// the uuid column accepts it.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepo) InsertRoom(ctx context.Context, rec domain.RoomRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rooms(id, code, owner_id, status, round, max_rounds, draw_time, finished_at)
		 VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Code, nullIfEmpty(rec.OwnerID), rec.Status, rec.Round, rec.MaxRounds, rec.DrawTime, rec.FinishedAt)
	if err != nil {
		return wrapDB(err)
	}
	return nil
}

func (r *PostgresRepo) UpdateRoom(ctx context.Context, rec domain.RoomRecord) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rooms
		 SET owner_id = $2, status = $3, round = $4, max_rounds = $5, draw_time = $6, finished_at = $7
		 WHERE id = $1`,
		rec.ID, nullIfEmpty(rec.OwnerID), rec.Status, rec.Round, rec.MaxRounds, rec.DrawTime, rec.FinishedAt)
	if err != nil {
		return wrapDB(err)
	}
	return nil
}

func (r *PostgresRepo) UpsertParticipant(ctx context.Context, rec domain.ParticipantRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO participants(id, room_id, name, avatar, score, turn_order)
		 VALUES($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (room_id, name) DO UPDATE
		 SET id = EXCLUDED.id, avatar = EXCLUDED.avatar,
		     score = EXCLUDED.score, turn_order = EXCLUDED.turn_order`,
		rec.ID, rec.RoomID, rec.Name, rec.Avatar, rec.Score, rec.TurnOrder)
	if err != nil {
		return wrapDB(err)
	}
	return nil
}

func (r *PostgresRepo) UpsertScore(ctx context.Context, roomID, participantID string, points int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO scores(room_id, participant_id, points)
		 VALUES($1, $2, $3)
		 ON CONFLICT (room_id, participant_id) DO UPDATE SET points = EXCLUDED.points`,
		roomID, participantID, points)
	if err != nil {
		return wrapDB(err)
	}
	return nil
}

func (r *PostgresRepo) AppendChat(ctx context.Context, rec domain.ChatRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_log(room_id, participant_id, message, is_correct_guess)
		 VALUES($1, $2, $3, $4)`,
		rec.RoomID, rec.ParticipantID, rec.Message, rec.CorrectGuess)
	if err != nil {
		return wrapDB(err)
	}
	return nil
}

func (r *PostgresRepo) LatestRoomByCode(ctx context.Context, code string) (domain.RoomRecord, error) {
	rec := domain.RoomRecord{Code: code}
	row := r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(owner_id::text, ''), status, round, max_rounds, draw_time, finished_at, created_at
		 FROM rooms WHERE code = $1
		 ORDER BY created_at DESC LIMIT 1`, code)

	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Status, &rec.Round,
		&rec.MaxRounds, &rec.DrawTime, &rec.FinishedAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RoomRecord{}, domain.ErrRoomNotFound
		}
		return domain.RoomRecord{}, wrapDB(err)
	}
	return rec, nil
}

func (r *PostgresRepo) ParticipantsForRoom(ctx context.Context, roomID string) ([]domain.ParticipantRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, avatar, score, turn_order
		 FROM participants WHERE room_id = $1
		 ORDER BY turn_order ASC`, roomID)
	if err != nil {
		return nil, wrapDB(err)
	}
	defer rows.Close()

	var out []domain.ParticipantRecord
	for rows.Next() {
		rec := domain.ParticipantRecord{RoomID: roomID}
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Avatar, &rec.Score, &rec.TurnOrder); err != nil {
			return nil, wrapDB(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB(err)
	}
	return out, nil
}

// Draw implements the game's word supplier: n random words, optionally from
// one difficulty bucket.
func (r *PostgresRepo) Draw(ctx context.Context, count int, difficulty string) ([]string, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if difficulty != "" {
		rows, err = r.pool.Query(ctx,
			`SELECT word FROM words WHERE difficulty = $2 ORDER BY RANDOM() LIMIT $1`,
			count, difficulty)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT word FROM words ORDER BY RANDOM() LIMIT $1`, count)
	}
	if err != nil {
		return nil, wrapDB(err)
	}
	defer rows.Close()

	words := make([]string, 0, count)
	for rows.Next() {
		var word string
		if err := rows.Scan(&word); err != nil {
			return nil, wrapDB(err)
		}
		words = append(words, word)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDB(err)
	}
	return words, nil
}
