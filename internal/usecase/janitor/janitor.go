package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// Purger удаляет истёкшие предупреждения и мьюты.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, int64, error)
}

// Pruner чистит состояние процессного лимитера.
type Pruner interface {
	Prune(maxWindow time.Duration) int
}

const runTimeout = time.Minute

// Janitor периодически чистит просроченные данные.
type Janitor struct {
	cron      *cron.Cron
	purger    Purger
	pruner    Pruner
	maxWindow time.Duration
	log       zerolog.Logger
}

// New создаёт уборщика. pruner может быть nil, если лимитер живёт в Redis.
func New(purger Purger, pruner Pruner, maxWindow time.Duration, log zerolog.Logger) *Janitor {
	return &Janitor{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		purger:    purger,
		pruner:    pruner,
		maxWindow: maxWindow,
		log:       log,
	}
}

// Schedule регистрирует уборку раз в interval.
func (j *Janitor) Schedule(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	_, err := j.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		j.RunOnce(ctx)
	})
	return err
}

// Start запускает планировщик.
func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop останавливает планировщик и ждёт текущий прогон.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Report — итог одного прогона.
type Report struct {
	Warnings int64
	Mutes    int64
	Limiter  int
	Err      error
}

// RunOnce выполняет уборку. Очистка хранилища и лимитера идут параллельно.
func (j *Janitor) RunOnce(ctx context.Context) Report {
	var rep Report
	var wg conc.WaitGroup
	wg.Go(func() {
		rep.Warnings, rep.Mutes, rep.Err = j.purger.PurgeExpired(ctx)
	})
	if j.pruner != nil {
		wg.Go(func() {
			rep.Limiter = j.pruner.Prune(j.maxWindow)
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		rep.Err = recovered.AsError()
	}
	if rep.Err != nil {
		j.log.Error().Err(rep.Err).Msg("janitor: уборка завершилась с ошибкой")
		return rep
	}
	j.log.Debug().Int64("warnings", rep.Warnings).Int64("mutes", rep.Mutes).Int("limiter", rep.Limiter).Msg("janitor: уборка завершена")
	return rep
}
