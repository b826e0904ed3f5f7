package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eanlabs/bioplast/internal/audit"
	"github.com/eanlabs/bioplast/internal/auth"
	"github.com/eanlabs/bioplast/internal/export"
	"github.com/eanlabs/bioplast/internal/metrics"
	"github.com/eanlabs/bioplast/internal/models"
	"github.com/eanlabs/bioplast/internal/policy"
	"github.com/eanlabs/bioplast/internal/repo"
	"github.com/eanlabs/bioplast/internal/stats"
	"github.com/eanlabs/bioplast/internal/store"
	"github.com/eanlabs/bioplast/internal/timer"
)

var (
	// ErrPermissionDenied covers both "not logged in" and "wrong role or
	// ownership". Callers must not proceed with the mutation.
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
)

// Service wires the notebook core together and is the single place where
// permission predicates are evaluated before mutating repository calls.
// The repository itself stays a thin persistence layer.
type Service struct {
	Config   *Config
	KV       store.KV
	Users    *auth.Users
	Sessions auth.Sessions
	Repo     *repo.Repository
	Trail    *audit.Trail
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	kv, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	var sessions auth.Sessions
	if config.Auth.RedisURL != "" {
		sessions, err = auth.NewRedisSessions(config.Auth.RedisURL)
		if err != nil {
			kv.Close()
			return nil, fmt.Errorf("failed to init sessions: %w", err)
		}
	} else {
		sessions = auth.NewMemorySessions()
	}

	trail := audit.NewTrail(kv)
	users := auth.NewUsers(kv)
	if err := users.EnsureDefaultAdmin(config.Admin.Name, config.Admin.Email, config.Admin.Password); err != nil {
		kv.Close()
		sessions.Close()
		return nil, fmt.Errorf("failed to seed default admin: %w", err)
	}

	return &Service{
		Config:   config,
		KV:       kv,
		Users:    users,
		Sessions: sessions,
		Repo:     repo.New(kv, trail),
		Trail:    trail,
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.KV.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("sessions: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.Session, error) {
	user, err := s.Users.Authenticate(email, password)
	if err != nil {
		return "", nil, err
	}

	sess := &models.Session{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
	token, err := s.Sessions.Create(ctx, sess)
	if err != nil {
		return "", nil, err
	}
	return token, sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Sessions.Destroy(ctx, token)
}

// SessionFromRequest resolves the bearer token into the current session.
// Returns nil without error when the request carries no valid session.
func (s *Service) SessionFromRequest(r *http.Request) (*models.Session, error) {
	token := s.BearerToken(r)
	if token == "" {
		return nil, nil
	}
	return s.Sessions.Resolve(r.Context(), token)
}

func (s *Service) BearerToken(r *http.Request) string {
	authHeader := r.Header.Get(s.Config.Auth.TokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// StartExperiment creates the experiment plus its replicate practices for
// the logged-in session.
func (s *Service) StartExperiment(sess *models.Session, base models.Reagents, replicas int) (*models.Experiment, []models.Practice, error) {
	if sess == nil {
		return nil, nil, ErrPermissionDenied
	}

	exp, practices, err := s.Repo.CreateExperiment(sess, base, replicas)
	if err != nil {
		return nil, nil, err
	}

	metrics.ExperimentsTotal.WithLabelValues(strconv.Itoa(replicas)).Inc()
	return exp, practices, nil
}

func (s *Service) Search(sess *models.Session, mode repo.SearchMode, query string) ([]models.Practice, error) {
	if sess == nil {
		return nil, ErrPermissionDenied
	}
	return s.Repo.Search(sess, mode, query)
}

// Practice returns one practice, or ErrNotFound / ErrPermissionDenied.
func (s *Service) Practice(sess *models.Session, code string) (*models.Practice, error) {
	p, err := s.Repo.FindPracticeByCode(code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if !policy.CanSee(sess, p.OwnerID) {
		return nil, ErrPermissionDenied
	}
	return p, nil
}

func (s *Service) UpdatePractice(sess *models.Session, code string, update models.PracticeUpdate) (*models.Practice, error) {
	if err := s.requireEdit(sess, code); err != nil {
		return nil, err
	}

	p, err := s.Repo.UpdatePractice(code, update)
	if err != nil {
		return nil, err
	}
	metrics.PracticeUpdatesTotal.WithLabelValues("fields").Inc()
	return p, nil
}

func (s *Service) RecordHeat(sess *models.Session, code string, seconds int, maxTemp *float64, notes string) (*models.Practice, error) {
	if err := s.requireEdit(sess, code); err != nil {
		return nil, err
	}

	p, err := s.Repo.RecordHeatData(sess, code, seconds, maxTemp, notes)
	if err != nil {
		return nil, err
	}
	metrics.PracticeUpdatesTotal.WithLabelValues("heat").Inc()
	return p, nil
}

func (s *Service) AttachPhoto(sess *models.Session, code, photoDataURL, finalNotes string) (*models.Practice, error) {
	if err := s.requireEdit(sess, code); err != nil {
		return nil, err
	}

	p, err := s.Repo.AttachPhoto(code, photoDataURL, finalNotes)
	if err != nil {
		return nil, err
	}
	metrics.PracticeUpdatesTotal.WithLabelValues("photo").Inc()
	return p, nil
}

func (s *Service) requireEdit(sess *models.Session, code string) error {
	p, err := s.Repo.FindPracticeByCode(code)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotFound
	}
	if !policy.CanEdit(sess, p.OwnerID) {
		return ErrPermissionDenied
	}
	return nil
}

func (s *Service) CloseExperiment(sess *models.Session, number int) (*models.Experiment, error) {
	exp, err := s.Repo.GetExperiment(number)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, ErrNotFound
	}
	if !policy.CanClose(sess, exp) {
		return nil, ErrPermissionDenied
	}
	return s.Repo.CloseExperiment(sess, number)
}

func (s *Service) DeleteExperiment(sess *models.Session, number int) error {
	if !policy.CanDelete(sess) {
		return ErrPermissionDenied
	}
	exp, err := s.Repo.GetExperiment(number)
	if err != nil {
		return err
	}
	if exp == nil {
		return ErrNotFound
	}
	return s.Repo.DeleteExperiment(sess, number)
}

func (s *Service) DeletePractice(sess *models.Session, code string) error {
	if !policy.CanDelete(sess) {
		return ErrPermissionDenied
	}
	return s.Repo.DeletePractice(sess, code)
}

// ExperimentGroup returns the experiment and the practices the session may
// see, ordered by practice number.
func (s *Service) ExperimentGroup(sess *models.Session, number int) (*models.Experiment, []models.Practice, error) {
	exp, err := s.Repo.GetExperiment(number)
	if err != nil {
		return nil, nil, err
	}
	if exp == nil {
		return nil, nil, ErrNotFound
	}

	group, err := s.Repo.FindPracticesByExperiment(number)
	if err != nil {
		return nil, nil, err
	}
	visible := make([]models.Practice, 0, len(group))
	for _, p := range group {
		if policy.CanSee(sess, p.OwnerID) {
			visible = append(visible, p)
		}
	}
	if len(visible) == 0 && !policy.CanSee(sess, exp.OwnerID) {
		return nil, nil, ErrPermissionDenied
	}
	return exp, visible, nil
}

// ReliabilityKind pairs the verdict with the descriptive statistics for
// one measurement kind.
type ReliabilityKind struct {
	Verdict stats.Verdict `json:"verdict"`
	Stats   stats.Summary `json:"stats"`
}

type PracticeLight struct {
	Code  string      `json:"code"`
	Light timer.Light `json:"light"`
}

type ReliabilityReport struct {
	ExperimentNumber int             `json:"experimentNumber"`
	Time             ReliabilityKind `json:"time"`
	Temp             ReliabilityKind `json:"temp"`
	HeatingLights    []PracticeLight `json:"heatingLights"`
}

// Reliability aggregates the replicate measurements of one experiment:
// heating time in minutes and peak temperature in °C, each classified
// against its threshold, plus a per-practice traffic light against the
// heating target.
func (s *Service) Reliability(sess *models.Session, number int) (*ReliabilityReport, error) {
	_, group, err := s.ExperimentGroup(sess, number)
	if err != nil {
		return nil, err
	}

	times := make([]float64, 0, len(group))
	temps := make([]float64, 0, len(group))
	lights := make([]PracticeLight, 0, len(group))
	for _, p := range group {
		if p.HeatSeconds > 0 {
			times = append(times, float64(p.HeatSeconds)/60)
		}
		if p.MaxTemp != nil {
			temps = append(temps, *p.MaxTemp)
		}
		lights = append(lights, PracticeLight{
			Code:  p.Code,
			Light: timer.TrafficLight(p.HeatSeconds, s.Config.Heating.TargetSeconds, s.Config.Heating.Tolerance),
		})
	}

	criteria := s.Config.Reliability
	return &ReliabilityReport{
		ExperimentNumber: number,
		Time: ReliabilityKind{
			Verdict: criteria.Classify(stats.KindTime, times),
			Stats:   stats.Summarize(times),
		},
		Temp: ReliabilityKind{
			Verdict: criteria.Classify(stats.KindTemp, temps),
			Stats:   stats.Summarize(temps),
		},
		HeatingLights: lights,
	}, nil
}

// ExportCSV renders the experiment's visible practices as CSV and names
// the file after the experiment and today's date.
func (s *Service) ExportCSV(sess *models.Session, number int) (string, string, error) {
	exp, group, err := s.ExperimentGroup(sess, number)
	if err != nil {
		return "", "", err
	}
	return export.Filename(number, time.Now()), export.BuildGroupCSV(exp, group), nil
}

// ---- admin surface ----

func (s *Service) ListUsers(sess *models.Session) ([]models.User, error) {
	if !sess.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.Users.List()
}

func (s *Service) RegisterUser(sess *models.Session, user models.User) (*models.User, error) {
	if !sess.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.Users.Register(user)
}

func (s *Service) UpdateUser(sess *models.Session, id string, update models.UserUpdate) (*models.User, error) {
	if !sess.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	u, err := s.Users.Update(id, update)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *Service) DeleteUser(sess *models.Session, id string) error {
	if !sess.IsAdmin() {
		return ErrPermissionDenied
	}
	return s.Users.Delete(id)
}

// AuditEntries is readable by admins and instructors.
func (s *Service) AuditEntries(sess *models.Session) ([]models.AuditEntry, error) {
	if !sess.IsAdmin() && !sess.IsInstructor() {
		return nil, ErrPermissionDenied
	}
	return s.Trail.Entries()
}

// ClearAudit is destructive and admin-only.
func (s *Service) ClearAudit(sess *models.Session) error {
	if !sess.IsAdmin() {
		return ErrPermissionDenied
	}
	return s.Trail.Clear()
}
