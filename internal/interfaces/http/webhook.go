package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
)

const (
	headerSignature = "X-Signature"
	headerTimestamp = "X-Timestamp"

	maxWebhookBody = 64 << 10
)

// PaymentNotification is the body posted by the payment gateway
type PaymentNotification struct {
	SubmissionID string `json:"submission_id"`
	Reference    string `json:"reference"`
	AmountCents  int64  `json:"amount_cents"`
}

// paymentWebhook verifies gateway callbacks and turns them into payment.confirmed events
type paymentWebhook struct {
	secret     []byte
	maxSkew    time.Duration
	dispatcher dispatcher.Dispatcher
	logger     Logger
	now        func() time.Time
}

func newPaymentWebhook(secret string, maxSkew time.Duration, d dispatcher.Dispatcher, logger Logger, now func() time.Time) *paymentWebhook {
	if now == nil {
		now = time.Now
	}
	return &paymentWebhook{
		secret:     []byte(secret),
		maxSkew:    maxSkew,
		dispatcher: d,
		logger:     logger,
		now:        now,
	}
}

// SignPayment computes the X-Signature value for a webhook body
func SignPayment(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Handle handles POST /webhooks/payment
func (w *paymentWebhook) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		badRequest(c, "unreadable webhook body")
		return
	}

	if !w.verify(c.GetHeader(headerTimestamp), c.GetHeader(headerSignature), body) {
		w.logger.Warn("Rejected payment webhook",
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(ctxRequestID),
		)
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "invalid webhook signature"})
		return
	}

	var n PaymentNotification
	if err := json.Unmarshal(body, &n); err != nil {
		badRequest(c, "invalid webhook body")
		return
	}
	n.SubmissionID = strings.TrimSpace(n.SubmissionID)
	n.Reference = strings.TrimSpace(n.Reference)
	if n.SubmissionID == "" || n.Reference == "" {
		badRequest(c, "submission_id and reference are required")
		return
	}

	evt := event.NewEventWithCorrelation(event.TypePaymentConfirmed, n.SubmissionID, map[string]interface{}{
		event.PayloadPaymentReference: n.Reference,
		event.PayloadAmountCents:      n.AmountCents,
	}, n.Reference)

	if err := w.dispatcher.Dispatch(c.Request.Context(), evt); err != nil {
		h := &Handlers{logger: w.logger}
		h.writeError(c, err)
		return
	}

	w.logger.Info("Payment confirmed",
		"submission_id", n.SubmissionID,
		"reference", n.Reference,
		"amount_cents", n.AmountCents,
	)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{
		"submission_id": n.SubmissionID,
		"event_id":      evt.ID,
	}})
}

// verify checks the timestamp window and the HMAC-SHA256 signature
func (w *paymentWebhook) verify(rawTS, signature string, body []byte) bool {
	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil || signature == "" {
		return false
	}

	skew := w.now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if w.maxSkew > 0 && skew > w.maxSkew {
		return false
	}

	expected := SignPayment(string(w.secret), ts, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
