// Пакет для периодических задач сервиса: очистка старых ревизий документов.
//
// Основные возможности:
//   - Реестр задач с расписанием в формате cron.
//   - Загрузка и перезагрузка задач в диспетчер.
//   - Запуск задачи вне расписания.
//   - Запуск и остановка диспетчера.
package cronmanager

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const PruneRevisionsJob = "prune_revisions"

type CronJobFunc func()

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry
}

func NewCronManager(jobRegistry JobRegistry) *CronManager {
	dispatcher := cron.New(
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &CronManager{
		dispatcher:  dispatcher,
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
	}
}

// PruneJob удаляет ревизии старше keep последних у каждого документа.
func PruneJob(db *gorm.DB, keep int, schedule string) Job {
	return Job{
		Schedule: schedule,
		Func: func() {
			deleted, err := dao.PruneRevisions(db, keep)
			if err != nil {
				slog.Error("Prune document revisions", "err", err)
				return
			}
			if deleted > 0 {
				slog.Info("Prune document revisions", "deleted", deleted, "keep", keep)
			}
		},
	}
}

// LoadJobs заново добавляет в диспетчер все задачи реестра. Возвращает первую ошибку расписания.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var firstErr error
	for name, job := range cm.jobRegistry {
		if err := cm.addJob(name, job); err != nil {
			slog.Error("Error adding job", "name", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (cm *CronManager) addJob(name string, job Job) error {
	id, err := cm.dispatcher.AddFunc(job.Schedule, job.Func)
	if err != nil {
		return fmt.Errorf("add job '%s': %w", name, err)
	}
	cm.jobs[name] = id
	return nil
}

// RunNow выполняет задачу синхронно вне расписания.
func (cm *CronManager) RunNow(name string) error {
	cm.mu.Lock()
	job, ok := cm.jobRegistry[name]
	cm.mu.Unlock()
	if !ok {
		return fmt.Errorf("no job registered for name: %s", name)
	}
	job.Func()
	return nil
}

func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// Scheduled - имена задач, добавленных в диспетчер.
func (cm *CronManager) Scheduled() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	res := make([]string, 0, len(cm.jobs))
	for name := range cm.jobs {
		res = append(res, name)
	}
	return res
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop останавливает диспетчер и ждет завершения выполняющихся задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}
