package seeding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/register/internal/domain/model"
	"github.com/okian/register/pkg/logger"
)

// ErrConfig is returned for an unusable Config.
var ErrConfig = errors.New("invalid seeding config")

// Run seeds the service at config.BaseURL and verifies the lapsed report.
//
// Members are created with config.Workers concurrent requests. Every member
// is marked at the first event and a ReturnPercent share at the second, so
// the expected lapsed set is known in advance.
func Run(ctx context.Context, config *Config, log logger.Logger) (*Result, *Stats, error) {
	if config.Members <= 0 {
		return nil, nil, fmt.Errorf("%w: members must be positive", ErrConfig)
	}
	if config.ReturnPercent < 0 || config.ReturnPercent > PercentageMultiplier {
		return nil, nil, fmt.Errorf("%w: return percent must be within 0..100", ErrConfig)
	}
	if log == nil {
		log = logger.Nop()
	}
	workers := max(config.Workers, 1)
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(config.BaseURL, timeout)

	log.Info(ctx, "starting seeding run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("members", config.Members),
		logger.Int("workers", workers),
		logger.Int("returnPercent", config.ReturnPercent))

	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, nil, fmt.Errorf("service health check failed: %w", err)
	}

	res := &Result{}
	if err := client.postJSON(ctx, "/branches", nil, model.Branch{
		Name: "Seed Branch", Region: "Greater Accra", Location: "Osu",
	}, &res.Branch); err != nil {
		return nil, nil, fmt.Errorf("create branch: %w", err)
	}

	members, err := createMembers(ctx, client, generateMembers(config.Members, res.Branch.ID), workers, log, config.Verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("create members: %w", err)
	}
	res.Members = members
	stats.MembersCreated = len(members)

	first, second := config.FirstDate, config.SecondDate
	if first == "" {
		first = DefaultFirstDate
	}
	if second == "" {
		second = DefaultSecondDate
	}
	for _, ev := range []struct {
		date string
		dst  *model.ServiceEvent
	}{{first, &res.First}, {second, &res.Second}} {
		body := model.ServiceEvent{Type: model.EventSunday, Date: ev.date, Location: "Main auditorium", BranchID: res.Branch.ID}
		if err := client.postJSON(ctx, "/service-events", nil, body, ev.dst); err != nil {
			return nil, nil, fmt.Errorf("create service event %s: %w", ev.date, err)
		}
	}

	res.Returned = pickReturners(members, config.ReturnPercent)
	var marks []mark
	for _, m := range members {
		marks = append(marks, mark{memberID: m.ID, eventID: res.First.ID})
		if res.Returned[m.ID] {
			marks = append(marks, mark{memberID: m.ID, eventID: res.Second.ID})
		}
	}
	marked, err := markAttendance(ctx, client, marks, workers, log, config.Verbose)
	stats.AttendanceMarked = marked
	if err != nil {
		return nil, nil, fmt.Errorf("mark attendance: %w", err)
	}

	if err := client.getJSON(ctx, "/reports/lapsed-attendees", url.Values{
		"present_event_id": {res.First.ID},
		"absent_event_id":  {res.Second.ID},
	}, &res.Lapsed); err != nil {
		return nil, nil, fmt.Errorf("lapsed report: %w", err)
	}

	stats.LapsedExpected = len(members) - len(res.Returned)
	stats.LapsedReported = len(res.Lapsed)
	if err := verifyLapsed(res); err != nil {
		return res, stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return res, stats, nil
}

type mark struct {
	memberID string
	eventID  string
}

// createMembers posts members concurrently and returns them, with their
// assigned ids, in input order.
func createMembers(ctx context.Context, client *HTTPClient, in []model.Member, workers int, log logger.Logger, verbose bool) ([]model.Member, error) {
	out := make([]model.Member, len(in))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range in {
		g.Go(func() error {
			if err := client.postJSON(gctx, "/members", nil, in[i], &out[i]); err != nil {
				return err
			}
			if verbose {
				log.Debug(gctx, "member created", logger.String("id", out[i].ID))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// markAttendance posts attendance marks concurrently and returns how many
// succeeded.
func markAttendance(ctx context.Context, client *HTTPClient, marks []mark, workers int, log logger.Logger, verbose bool) (int, error) {
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, m := range marks {
		g.Go(func() error {
			q := url.Values{"user_id": {m.memberID}, "event_id": {m.eventID}}
			if err := client.postJSON(gctx, "/attendance", q, nil, nil); err != nil {
				return err
			}
			done.Add(1)
			if verbose {
				log.Debug(gctx, "attendance marked",
					logger.String("member_id", m.memberID),
					logger.String("event_id", m.eventID))
			}
			return nil
		})
	}
	err := g.Wait()
	return int(done.Load()), err
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	var body map[string]string
	if err := client.getJSON(ctx, "/healthz", nil, &body); err != nil {
		return err
	}
	if body["status"] != "ok" {
		return fmt.Errorf("%w: health status %q", ErrStatus, body["status"])
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var marksPerSecond float64
	if stats.Duration > 0 {
		marksPerSecond = float64(stats.AttendanceMarked) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("membersCreated", stats.MembersCreated),
		logger.Int("attendanceMarked", stats.AttendanceMarked),
		logger.Int("lapsedExpected", stats.LapsedExpected),
		logger.Int("lapsedReported", stats.LapsedReported),
		logger.Duration("duration", stats.Duration),
		logger.Float64("marksPerSecond", marksPerSecond))
}
