package middleware

import (
	"TakaDetect/pkg/response"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

var (
	ErrTooManyRequests = &response.Error{Code: http.StatusTooManyRequests, Err: errors.New("too many requests")}
)

// Inference requests are expensive, so the defaults are deliberately low.
const (
	defaultRate  = 10
	defaultBurst = 20
)

type rateLimiter struct {
	bucket    map[string]*rate.Limiter
	rate      rate.Limit
	burstSize int
	mutex     *sync.RWMutex
}

func newRateLimiterFromEnv() *rateLimiter {
	reqRate := rate.Limit(envInt("RATE_LIMIT_RPS", defaultRate))
	burst := envInt("RATE_LIMIT_BURST", defaultBurst)

	return &rateLimiter{
		bucket:    make(map[string]*rate.Limiter),
		rate:      reqRate,
		burstSize: burst,
		mutex:     &sync.RWMutex{},
	}
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (r *rateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exist := r.bucket[ip]; !exist {
		r.bucket[ip] = rate.NewLimiter(r.rate, r.burstSize)
	}

	return r.bucket[ip]
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()
	limiter := m.rateLimitter.GetLimiterFrom(clientIP)

	if !limiter.Allow() {
		m.log.Warnf("too many requests for IP %s", clientIP)
		return ctx.Status(ErrTooManyRequests.Code).JSON(fiber.Map{
			"error": ErrTooManyRequests.Err.Error(),
		})
	}

	return ctx.Next()
}
