/*
   SOSEDI - Neighborhood community platform companion service
   Copyright (C) 2025  Unbewohnte (Kasyanov Nikolay Alexeevich)

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package mirror

import (
	"context"
	"fmt"
	"time"

	"Unbewohnte/SOSEDI/internal/config"
)

// RetryPolicy применяется ко всем вызовам Bot API.
//
// Попытка, получившая 429, расходует одну из MaxAttempts, но следующая
// попытка выполняется сразу после паузы, которую назвал Telegram,
// вместо обычной экспоненциальной задержки.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	Multiplier     float64
	RateLimitDelay time.Duration

	// Sleep подменяется в тестах
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		Multiplier:     2,
		RateLimitDelay: 5 * time.Second,
	}
}

// RetryPolicyFrom переводит настройки из конфигурации; нулевые значения
// заменяются значениями по умолчанию.
func RetryPolicyFrom(conf config.RetryConf) RetryPolicy {
	policy := DefaultRetryPolicy()
	if conf.MaxAttempts > 0 {
		policy.MaxAttempts = conf.MaxAttempts
	}
	if conf.BaseDelayMillis > 0 {
		policy.BaseDelay = time.Duration(conf.BaseDelayMillis) * time.Millisecond
	}
	if conf.Multiplier >= 1 {
		policy.Multiplier = conf.Multiplier
	}
	if conf.RateLimitDelaySeconds > 0 {
		policy.RateLimitDelay = time.Duration(conf.RateLimitDelaySeconds) * time.Second
	}
	return policy
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do выполняет op, пока она не завершится успешно, не вернет неповторяемую
// ошибку или не закончатся попытки. Возвращается последняя ошибка.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.BaseDelay
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}

		if attempt == attempts || !isRetryable(err) {
			return err
		}

		wait := delay
		if retryAfter, limited := rateLimitDelay(err, p.RateLimitDelay); limited {
			wait = retryAfter
		}

		if sleepErr := sleep(ctx, wait); sleepErr != nil {
			return fmt.Errorf("%w (повтор прерван: %v)", err, sleepErr)
		}

		delay = time.Duration(float64(delay) * multiplier)
	}

	return err
}
