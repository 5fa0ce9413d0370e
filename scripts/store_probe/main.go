package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Alexseyf/elo-escola/internal/client"
	"github.com/Alexseyf/elo-escola/internal/models"
	"github.com/Alexseyf/elo-escola/internal/session"
	"github.com/Alexseyf/elo-escola/internal/store"
)

type probe struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context) (string, bool)
}

type result struct {
	Name     string
	Critical bool
	OK       bool
	Detail   string
	Duration time.Duration
	Version  uint64
	Error    string
}

func main() {
	var (
		apiBase     string
		token       string
		classroomID int
		studentID   int
		date        string
		guardianID  int
		timeout     time.Duration
		verbose     bool
	)

	flag.StringVar(&apiBase, "api-base", "http://localhost:3001", "Platform API base URL")
	flag.StringVar(&token, "token", os.Getenv("SESSION_TOKEN"), "Access token (defaults to SESSION_TOKEN)")
	flag.IntVar(&classroomID, "classroom", 0, "Classroom to list (skipped when 0)")
	flag.IntVar(&studentID, "student", 0, "Student to load and diary-check (skipped when 0)")
	flag.StringVar(&date, "date", "", "Diary check day, YYYY-MM-DD (defaults to today upstream)")
	flag.IntVar(&guardianID, "link-guardian", 0, "User to link as guardian of -student; mutates upstream data")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.BoolVar(&verbose, "v", false, "Log every upstream call")
	flag.Parse()

	logr := zap.NewNop()
	if verbose {
		var err error
		if logr, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
	}

	clientCfg := client.Config{BaseURL: strings.TrimRight(apiBase, "/"), Timeout: timeout, Logger: logr}
	sess := session.New(session.NewUpstreamVerifier(client.New(clientCfg, nil)))
	if strings.TrimSpace(token) != "" {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		_, err := sess.SetToken(ctx, token)
		cancel()
		if err != nil {
			log.Fatalf("token not accepted: %v", err)
		}
	}

	var diaryDate *models.Date
	if date != "" {
		parsed, err := models.ParseDate(date)
		if err != nil {
			log.Fatalf("invalid -date: %v", err)
		}
		diaryDate = &parsed
	}

	api := client.New(clientCfg, sess)
	st := store.New(store.Params{API: api, Logger: logr})

	probes := []probe{{
		Name:     "fetch all students",
		Critical: true,
		Run: func(ctx context.Context) (string, bool) {
			st.FetchAll(ctx)
			state := st.State()
			return fmt.Sprintf("%d students", len(state.Students)), state.LastError == ""
		},
	}}
	if classroomID > 0 {
		probes = append(probes, probe{
			Name:     fmt.Sprintf("fetch classroom %d", classroomID),
			Critical: true,
			Run: func(ctx context.Context) (string, bool) {
				students := st.FetchByClassroom(ctx, classroomID)
				return fmt.Sprintf("%d students", len(students)), st.State().LastError == ""
			},
		})
	}
	if studentID > 0 {
		probes = append(probes, probe{
			Name:     fmt.Sprintf("student %d detail", studentID),
			Critical: true,
			Run: func(ctx context.Context) (string, bool) {
				detail := st.GetDetail(ctx, studentID)
				if detail == nil {
					return "not loaded", false
				}
				return fmt.Sprintf("%s, %d guardians", detail.Name, len(detail.Guardians)), true
			},
		}, probe{
			Name: fmt.Sprintf("student %d diary check", studentID),
			Run: func(ctx context.Context) (string, bool) {
				res := st.CheckDiaryRecord(ctx, studentID, diaryDate)
				if res == nil {
					return "unavailable", false
				}
				return fmt.Sprintf("has entry: %t", res.HasEntry), true
			},
		})
		if guardianID > 0 {
			probes = append(probes, probe{
				Name: fmt.Sprintf("link user %d as guardian", guardianID),
				Run: func(ctx context.Context) (string, bool) {
					res := st.AddGuardian(ctx, studentID, guardianID)
					return res.Message, res.Success
				},
			})
		}
	}

	ctx := context.Background()
	results := make([]result, 0, len(probes))
	breaking := 0
	for _, p := range probes {
		start := time.Now()
		detail, ok := p.Run(ctx)
		state := st.State()
		res := result{
			Name:     p.Name,
			Critical: p.Critical,
			OK:       ok,
			Detail:   detail,
			Duration: time.Since(start),
			Version:  state.Version,
			Error:    state.LastError,
		}
		if !ok && p.Critical {
			breaking++
		}
		results = append(results, res)
	}

	printReport(api.BaseURL(), sess.Info(), results)

	fmt.Printf("Critical failures: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func printReport(base string, info models.SessionInfo, results []result) {
	fmt.Println("Store Probe Report")
	fmt.Println("==================")
	fmt.Printf("Upstream: %s | Session active: %t | User: %d\n", base, info.Active, info.UserID)
	for _, res := range results {
		status := "OK"
		if !res.OK {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%s)\n", status, res.Name, res.Duration.Round(time.Millisecond))
		fmt.Printf("  %s | version: %d | critical: %t\n", res.Detail, res.Version, res.Critical)
		if res.Error != "" {
			fmt.Printf("  Last error: %s\n", res.Error)
		}
	}
}
