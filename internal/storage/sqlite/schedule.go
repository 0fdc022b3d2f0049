package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edgeplane/corectl/internal/types"
	"github.com/google/uuid"
)

func (s *SQLiteStorage) PutScheduledProcess(ctx context.Context, p types.ScheduledProcess) error {
	raw, err := json.Marshal(p.Argv)
	if err != nil {
		return fmt.Errorf("encode argv for %s: %w", p.Name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scheduled_processes (name, script) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET script = excluded.script
	`, p.Name, string(raw))
	if err != nil {
		return fmt.Errorf("put scheduled process %s: %w", p.Name, err)
	}
	return nil
}

func (s *SQLiteStorage) GetScheduledProcess(ctx context.Context, name string) (*types.ScheduledProcess, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, script FROM scheduled_processes WHERE name = ?`, name)
	var p types.ScheduledProcess
	var raw string
	if err := row.Scan(&p.Name, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scheduled process %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(raw), &p.Argv); err != nil {
		return nil, fmt.Errorf("decode argv for %s: %w", name, err)
	}
	return &p, nil
}

func (s *SQLiteStorage) AllScheduledProcesses(ctx context.Context) ([]types.ScheduledProcess, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, script FROM scheduled_processes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("all scheduled processes: %w", err)
	}
	defer rows.Close()
	var out []types.ScheduledProcess
	for rows.Next() {
		var p types.ScheduledProcess
		var raw string
		if err := rows.Scan(&p.Name, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &p.Argv); err != nil {
			return nil, fmt.Errorf("decode argv for %s: %w", p.Name, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) PutSchedule(ctx context.Context, sc types.Schedule) error {
	var timeStr sql.NullString
	if !sc.Time.IsZero() {
		timeStr = sql.NullString{String: sc.Time.Format("15:04:05"), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, schedule_name, process_name, schedule_type, schedule_time, schedule_day, schedule_interval, repeat, exclusive, paused)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schedule_name = excluded.schedule_name,
			process_name = excluded.process_name,
			schedule_type = excluded.schedule_type,
			schedule_time = excluded.schedule_time,
			schedule_day = excluded.schedule_day,
			schedule_interval = excluded.schedule_interval,
			repeat = excluded.repeat,
			exclusive = excluded.exclusive,
			paused = excluded.paused
	`, sc.ID.String(), sc.Name, sc.ProcessName, int(sc.Type), timeStr, sc.Day, int64(sc.Interval/time.Second), int(sc.Repeat), sc.Exclusive, sc.Paused)
	if err != nil {
		return fmt.Errorf("put schedule %s: %w", sc.ID, err)
	}
	return nil
}

func (s *SQLiteStorage) AllSchedules(ctx context.Context) ([]types.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, schedule_name, process_name, schedule_type, schedule_time, schedule_day, schedule_interval, repeat, exclusive, paused
		FROM schedules
	`)
	if err != nil {
		return nil, fmt.Errorf("all schedules: %w", err)
	}
	defer rows.Close()
	var out []types.Schedule
	for rows.Next() {
		var (
			id                                   string
			timeStr                              sql.NullString
			day, repeat, schedType               int
			intervalSeconds                      int64
			exclusive, paused                     bool
			sc                                    types.Schedule
		)
		if err := rows.Scan(&id, &sc.Name, &sc.ProcessName, &schedType, &timeStr, &day, &intervalSeconds, &repeat, &exclusive, &paused); err != nil {
			return nil, err
		}
		sc.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse schedule id %s: %w", id, err)
		}
		sc.Type = types.ScheduleType(schedType)
		sc.Day = day
		sc.Interval = time.Duration(intervalSeconds) * time.Second
		sc.Repeat = types.RepeatKind(repeat)
		sc.Exclusive = exclusive
		sc.Paused = paused
		if timeStr.Valid && timeStr.String != "" {
			t, err := time.Parse("15:04:05", timeStr.String)
			if err == nil {
				sc.Time = t
			}
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) InsertTask(ctx context.Context, t types.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, process_name, state, start_time, pid) VALUES (?, ?, ?, ?, ?)
	`, t.ID.String(), t.ProcessName, int(t.State), t.StartTime, t.PID)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", t.ID, err)
	}
	return nil
}

func (s *SQLiteStorage) CompleteTask(ctx context.Context, id string, exitCode int, end time.Time, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET state = ?, end_time = ?, exit_code = ?, reason = ? WHERE id = ?
	`, int(types.TaskComplete), end, exitCode, reason, id)
	if err != nil {
		return fmt.Errorf("complete task %s: %w", id, err)
	}
	return nil
}

// AllTasks returns every persisted task row, most recent first. STARTUP
// schedules never produce a row here (spec.md 3, 9); those are visible
// only through the scheduler's in-memory LiveTasks view.
func (s *SQLiteStorage) AllTasks(ctx context.Context) ([]types.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, process_name, state, start_time, end_time, pid, exit_code, reason
		FROM tasks ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("all tasks: %w", err)
	}
	defer rows.Close()
	var out []types.Task
	for rows.Next() {
		var (
			id      string
			state   int
			endTime sql.NullTime
			t       types.Task
		)
		if err := rows.Scan(&id, &t.ProcessName, &state, &t.StartTime, &endTime, &t.PID, &t.ExitCode, &t.Reason); err != nil {
			return nil, err
		}
		t.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse task id %s: %w", id, err)
		}
		t.State = types.TaskState(state)
		if endTime.Valid {
			t.EndTime = endTime.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
