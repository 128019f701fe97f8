package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Materials used for sample tasks
var materials = []struct {
	ID          string
	Description string
}{
	{"VTR-0101", "Viatura Toyota Hilux 4x4"},
	{"VTR-0207", "Viatura Ford Ranger"},
	{"GER-0012", "Gerador Honda EU22i"},
	{"BMB-0003", "Motobomba Stihl P840"},
	{"EMB-0045", "Embarcação semirrígida 5m"},
	{"RAD-0310", "Rádio Motorola DGM 8500"},
	{"EXT-1102", "Extintor ABC 6kg"},
	{"MTS-0050", "Motosserra Husqvarna 565"},
}

var recurrences = []models.RecurrenceType{
	models.RecurrenceWeekly,
	models.RecurrenceMonthly,
	models.RecurrenceQuarterly,
	models.RecurrenceSemiannual,
	models.RecurrenceAnnual,
	models.RecurrenceCustom,
}

var types = []string{models.TypeDaily, models.TypeQuarterly, models.TypeSemiannual, models.TypeAnnual, models.TypeCorrective}

type seeder struct {
	apiURL string
	token  string
	client *http.Client
}

func newSeeder(apiURL, token string) *seeder {
	return &seeder{apiURL: apiURL, token: token, client: &http.Client{Timeout: 10 * time.Second}}
}

func (s *seeder) authorizedPost(url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return s.client.Do(req)
}

// sampleTasks spreads n tasks from a few days overdue to three weeks ahead so every
// reminder bucket has something in it.
func sampleTasks(now time.Time, n int, rng *rand.Rand) []models.MaintenanceTask {
	tasks := make([]models.MaintenanceTask, 0, n)
	for i := 0; i < n; i++ {
		m := materials[i%len(materials)]
		offset := i*3 - 5
		due := time.Date(now.Year(), now.Month(), now.Day()+offset, 9+rng.Intn(8), 0, 0, 0, now.Location())

		task := models.MaintenanceTask{
			MaterialID:          m.ID,
			MaterialDescription: m.Description,
			Type:                types[rng.Intn(len(types))],
			Description:         "Revisão programada",
			DueDate:             due,
		}
		if i%2 == 0 {
			task.IsRecurrent = true
			task.RecurrenceType = recurrences[rng.Intn(len(recurrences))]
			if task.RecurrenceType == models.RecurrenceCustom {
				task.CustomRecurrenceDays = 10 + rng.Intn(50)
			}
		}
		if i%4 == 1 {
			days := 1 + rng.Intn(models.MaxDaysBeforeReminder)
			task.ReminderDays = &days
		}
		tasks = append(tasks, task)
	}
	return tasks
}

func (s *seeder) createTask(task models.MaintenanceTask) (string, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task: %w", err)
	}

	resp, err := s.authorizedPost(s.apiURL+"/maintenance", data)
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("task creation failed with status: %d", resp.StatusCode)
	}

	var created models.MaintenanceTask
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if created.ID.IsZero() {
		return "", fmt.Errorf("invalid task ID in response")
	}

	log.WithFields(log.Fields{
		"task_id":  created.ID.Hex(),
		"material": created.MaterialID,
		"due_date": created.DueDate.Format(time.DateOnly),
		"recurs":   created.RecurrenceType,
	}).Info("Created maintenance task")

	return created.ID.Hex(), nil
}

func (s *seeder) forceCheck() (map[string]interface{}, error) {
	resp, err := s.authorizedPost(s.apiURL+"/maintenance/check?force=true", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to run check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check failed with status: %d", resp.StatusCode)
	}
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result, nil
}

// run seeds the tasks and returns how many were created.
func (s *seeder) run(tasks []models.MaintenanceTask, check bool) int {
	created := 0
	for _, task := range tasks {
		if _, err := s.createTask(task); err != nil {
			log.WithError(err).Error("Failed to create maintenance task")
			continue
		}
		created++
	}

	log.WithField("created_tasks", created).Info("Seeding completed")
	if !check || created == 0 {
		return created
	}

	result, err := s.forceCheck()
	if err != nil {
		log.WithError(err).Error("Failed to run reminder check")
		return created
	}
	log.WithFields(log.Fields{
		"reason": result["reason"],
		"count":  result["count"],
	}).Info("Reminder check finished")
	return created
}

func main() {
	// JWT with create_maintenance and run_check permissions
	token := os.Getenv("SEED_AUTH_TOKEN")

	count := 8
	if val := os.Getenv("SEED_COUNT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			count = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	check, _ := strconv.ParseBool(os.Getenv("SEED_CHECK"))

	log.WithFields(log.Fields{
		"count":   count,
		"api_url": apiURL,
		"check":   check,
	}).Info("Seeding maintenance tasks")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := newSeeder(apiURL, token)
	if s.run(sampleTasks(time.Now(), count, rng), check) == 0 {
		log.Error("No tasks created. Ensure SEED_AUTH_TOKEN is valid and API is reachable.")
		os.Exit(1)
	}
}
