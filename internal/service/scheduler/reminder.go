package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gitee.com/flycash/repairshop-notification/internal/domain"
	"gitee.com/flycash/repairshop-notification/internal/errs"
	"gitee.com/flycash/repairshop-notification/internal/pkg/clock"
	"gitee.com/flycash/repairshop-notification/internal/repository"
	"gitee.com/flycash/repairshop-notification/internal/service/delivery"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batchSize"`
	LockKey   string        `yaml:"lockKey"`
	// Concurrency 一次轮询里同时提交的提醒数量
	Concurrency int `yaml:"concurrency"`
	// Lease 抢占租约，要比一次投递加上全部重试的耗时长
	Lease time.Duration `yaml:"lease"`
}

func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		BatchSize:   100,
		LockKey:     "repairshop:reminder:scheduler",
		Concurrency: 10,
		Lease:       5 * time.Minute,
	}
}

// ReminderScheduler 定时提醒。先落库再确认，进程重启之后从存储里恢复。
// 到期的提醒先抢占租约再提交，提交结果落库之后才删除，
// 进程在中途崩溃时租约过期，提醒会被重新提交，投递引擎按意图 ID 去重
type ReminderScheduler struct {
	repo      repository.ScheduledIntentRepository
	submitter delivery.Submitter
	ids       delivery.IDGenerator
	clock     clock.Clock
	cfg       Config
	logger    *elog.Component
}

func NewReminderScheduler(
	repo repository.ScheduledIntentRepository,
	submitter delivery.Submitter,
	ids delivery.IDGenerator,
	clk clock.Clock,
	cfg Config,
) *ReminderScheduler {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.LockKey == "" {
		cfg.LockKey = def.LockKey
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.Lease <= 0 {
		cfg.Lease = def.Lease
	}
	return &ReminderScheduler{
		repo:      repo,
		submitter: submitter,
		ids:       ids,
		clock:     clk,
		cfg:       cfg,
		logger:    elog.DefaultLogger,
	}
}

// Schedule 持久化成功之后才返回 ID，失败时返回 errs.ErrSchedulerPersistence
func (s *ReminderScheduler) Schedule(ctx context.Context, intent domain.NotificationIntent) (string, error) {
	if intent.NotBefore.IsZero() {
		return "", fmt.Errorf("%w: notBefore 为空", errs.ErrInvalidParameter)
	}
	if intent.ID == "" {
		id, err := s.ids.NextID()
		if err != nil {
			return "", fmt.Errorf("%w: %w", errs.ErrIntentIDGenerateFailed, err)
		}
		intent.ID = id
	}
	if intent.Priority == "" {
		intent.Priority = intent.TemplateID.DefaultPriority()
	}
	if err := intent.Validate(); err != nil {
		return "", err
	}
	intent.Status = domain.IntentStatusPending
	if err := s.repo.Save(ctx, intent); err != nil {
		s.logger.Error("保存定时提醒失败",
			elog.String("intentID", intent.ID),
			elog.String("notBefore", intent.NotBefore.Format(time.RFC3339)),
			elog.FieldErr(err))
		return "", err
	}
	return intent.ID, nil
}

// Cancel 已经触发、正在触发或者不存在的返回 false
func (s *ReminderScheduler) Cancel(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.Cancel(ctx, id, s.clock.Now())
	if err != nil {
		s.logger.Error("取消定时提醒失败", elog.String("intentID", id), elog.FieldErr(err))
		return false, err
	}
	return ok, nil
}

// Tick 提交所有到期的提醒，最多 Concurrency 个同时提交，
// 某个提醒的重试退避不会拖住其他提醒
func (s *ReminderScheduler) Tick(ctx context.Context) (int, error) {
	var (
		submitted atomic.Int64
		mu        sync.Mutex
		merr      *multierror.Error
		eg        errgroup.Group
	)
	eg.SetLimit(s.cfg.Concurrency)
	// 放弃租约的提醒本轮不再处理
	tried := make(map[string]struct{})
	for {
		due, err := s.repo.FindDue(ctx, s.clock.Now(), s.cfg.BatchSize)
		if err != nil {
			mu.Lock()
			merr = multierror.Append(merr, err)
			mu.Unlock()
			break
		}
		fresh := 0
		for _, intent := range due {
			if _, ok := tried[intent.ID]; ok {
				continue
			}
			tried[intent.ID] = struct{}{}
			fresh++
			// 在轮询的 goroutine 里抢占，下一页查询就不会再查到它
			claimed, err := s.claim(ctx, intent)
			if err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
				continue
			}
			if !claimed {
				continue
			}
			eg.Go(func() error {
				ok, err := s.submit(ctx, intent)
				if err != nil {
					mu.Lock()
					merr = multierror.Append(merr, err)
					mu.Unlock()
				}
				if ok {
					submitted.Add(1)
				}
				return nil
			})
		}
		if len(due) < s.cfg.BatchSize || fresh == 0 || ctx.Err() != nil {
			break
		}
	}
	_ = eg.Wait()
	return int(submitted.Load()), merr.ErrorOrNil()
}

// claim 返回 false 表示刚刚被取消，或者别的实例抢到了
func (s *ReminderScheduler) claim(ctx context.Context, intent domain.NotificationIntent) (bool, error) {
	now := s.clock.Now()
	return s.repo.Claim(ctx, intent.ID, now, now.Add(s.cfg.Lease))
}

func (s *ReminderScheduler) submit(ctx context.Context, intent domain.NotificationIntent) (bool, error) {
	res, err := s.submitter.Deliver(ctx, intent)
	var vf *errs.ValidationFailure
	switch {
	case err == nil || errors.As(err, &vf) || res.Status != "":
		s.logger.Info("定时提醒已提交",
			elog.String("intentID", intent.ID),
			elog.String("status", res.Status.String()))
		if _, derr := s.repo.Delete(context.WithoutCancel(ctx), intent.ID); derr != nil {
			// 租约过期之后会重新提交，拿到的是已经落库的结果
			s.logger.Warn("删除已提交的定时提醒失败",
				elog.String("intentID", intent.ID), elog.FieldErr(derr))
		}
		return true, nil
	case errors.Is(err, errs.ErrIntentInProgress):
		// 保留租约，过期之后再看结果
		s.logger.Info("定时提醒正在投递中", elog.String("intentID", intent.ID))
		return false, nil
	}
	if rerr := s.repo.Release(context.WithoutCancel(ctx), intent.ID); rerr != nil {
		s.logger.Error("定时提醒放弃租约失败，等待租约过期",
			elog.String("intentID", intent.ID),
			elog.Duration("lease", s.cfg.Lease),
			elog.FieldErr(rerr))
		return false, multierror.Append(err, rerr)
	}
	return false, fmt.Errorf("提交定时提醒失败 %s: %w", intent.ID, err)
}

// Reconcile 启动时调用，提交停机期间已经到期的提醒
func (s *ReminderScheduler) Reconcile(ctx context.Context) (int, error) {
	n, err := s.Tick(ctx)
	s.logger.Info("恢复到期的定时提醒", elog.Int("submitted", n))
	return n, err
}

// Start 单实例部署时使用，先恢复，再按间隔轮询，ctx 结束时返回
func (s *ReminderScheduler) Start(ctx context.Context) {
	if _, err := s.Reconcile(ctx); err != nil {
		s.logger.Error("恢复定时提醒失败", elog.FieldErr(err))
	}
	ticker := s.clock.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.logger.Error("轮询定时提醒失败", elog.FieldErr(err))
			}
		}
	}
}

// Loop 执行一次轮询再等待一个间隔，给 loopjob 使用
func (s *ReminderScheduler) Loop(ctx context.Context) error {
	_, err := s.Tick(ctx)
	select {
	case <-s.clock.After(s.cfg.Interval):
	case <-ctx.Done():
	}
	return err
}

func (s *ReminderScheduler) Config() Config {
	return s.cfg
}
