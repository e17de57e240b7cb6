package jobsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	submitPath = "/bookings"
	jobsPath   = "/api/jobs.json"

	// Статусы задач, которые занимают время техника
	blockingStatuses = "waiting,confirmed,in_progress,scheduled"

	defaultJobDurationMinutes = 120
	maxErrorBody              = 4096
)

// Config параметры клиента
type Config struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	Location      *time.Location
}

// Client клиент внешней системы заявок (job sink)
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	loc        *time.Location
	log        Logger
}

// NewClient создает новый экземпляр клиента job sink
func NewClient(cfg Config, log Logger) *Client {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		loc:     loc,
		log:     log,
	}
}

// SubmitJob передает подтвержденное бронирование и возвращает внешний ID заявки
func (c *Client) SubmitJob(ctx context.Context, record *domain.BookingRecord) (string, error) {
	payload := JobRequest{
		Reference:    record.ID,
		StartTime:    record.StartAt,
		EndTime:      record.EndAt,
		Customer:     Customer{Name: record.CustomerName, Email: record.CustomerEmail, Phone: record.CustomerPhone},
		ServiceID:    record.ServiceOfferingID,
		TechnicianID: record.ResourceID,
		Notes:        record.Notes,
		Location:     record.ServiceAddress,
		Status:       string(domain.StatusConfirmed),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode job: %v", ErrInternal, err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var job JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if job.ID == "" {
		return "", fmt.Errorf("%w: empty job id", ErrInvalidResponse)
	}

	c.log.Info("JobSink: booking %s forwarded as job %s", record.ID, job.ID)
	return job.ID, nil
}

// ListBusy возвращает интервалы, занятые задачами job sink на дату.
// Задачи другого техника и задачи без времени пропускаются
func (c *Client) ListBusy(ctx context.Context, date time.Time, resourceID string) ([]domain.TimeSlot, error) {
	day := date.In(c.loc)

	// Ресурс по умолчанию означает единственного техника, фильтр не нужен
	byTechnician := resourceID != "" && resourceID != domain.DefaultResourceID

	params := url.Values{}
	params.Set("filter[due_date_range]", day.Format("02/01/2006"))
	params.Set("filter[status]", blockingStatuses)
	if byTechnician {
		params.Set("filter[technician_id]", resourceID)
	}

	resp, err := c.do(ctx, http.MethodGet, c.baseURL+jobsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	jobs, err := decodeJobs(raw)
	if err != nil {
		return nil, err
	}

	busy := make([]domain.TimeSlot, 0, len(jobs))
	for _, job := range jobs {
		if byTechnician && job.TechnicianID != "" && job.TechnicianID != resourceID {
			continue
		}
		start, end, ok := c.jobInterval(job)
		if !ok {
			c.log.Warn("JobSink: job %s has no usable timing, skipped", job.ID)
			continue
		}
		busy = append(busy, domain.TimeSlot{Start: start, End: end, ResourceID: resourceID})
	}

	return busy, nil
}

func (c *Client) do(ctx context.Context, method, target string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrUnavailable, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}
	return fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, string(body))
}

// decodeJobs принимает как массив, так и объект {"jobs": [...]}
func decodeJobs(raw []byte) ([]Job, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var jobs []Job
		if err := json.Unmarshal(trimmed, &jobs); err != nil {
			return nil, fmt.Errorf("%w: failed to decode jobs: %v", ErrInvalidResponse, err)
		}
		return jobs, nil
	}

	var envelope jobsEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode jobs: %v", ErrInvalidResponse, err)
	}
	return envelope.Jobs, nil
}

// jobInterval восстанавливает интервал задачи: start_time/end_time,
// иначе due_date + due_time + duration (по умолчанию 120 минут), иначе due_date целиком
func (c *Client) jobInterval(job Job) (time.Time, time.Time, bool) {
	duration := time.Duration(defaultJobDurationMinutes) * time.Minute
	if job.DurationMinutes > 0 {
		duration = time.Duration(job.DurationMinutes) * time.Minute
	}

	if job.StartTime != "" {
		start, err := time.Parse(time.RFC3339, job.StartTime)
		if err != nil {
			return time.Time{}, time.Time{}, false
		}
		if job.EndTime != "" {
			end, err := time.Parse(time.RFC3339, job.EndTime)
			if err == nil && end.After(start) {
				return start, end, true
			}
		}
		return start, start.Add(duration), true
	}

	if job.DueDate == "" {
		return time.Time{}, time.Time{}, false
	}

	date, ok := parseDate(job.DueDate, c.loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	if job.DueTime != "" {
		clock, ok := parseClock(job.DueTime)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		start := date.Add(clock)
		return start, start.Add(duration), true
	}

	return date, date.Add(duration), true
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range []string{domain.DateFormat, "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (time.Duration, bool) {
	for _, layout := range []string{"15:04:05", domain.TimeFormat} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}
