package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/payment"
)

const testSecret = "controller-test-secret"

func newPaymentRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctl := &PaymentController{Gateway: payment.NewGateway("", testSecret, "INR")}
	r := gin.New()
	r.POST("/api/payment/create-order", ctl.CreatePaymentOrder)
	r.POST("/api/payment/verify", ctl.VerifyPayment)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signRefs(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSuccess(t *testing.T) {
	r := newPaymentRouter()
	body, _ := json.Marshal(gin.H{
		"order_ref":   "order_1",
		"payment_ref": "pay_1",
		"signature":   signRefs("order_1", "pay_1"),
	})

	w := postJSON(r, "/api/payment/verify", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestVerifyPaymentMismatchIsNotAnError(t *testing.T) {
	r := newPaymentRouter()
	body, _ := json.Marshal(gin.H{
		"order_ref":   "order_1",
		"payment_ref": "pay_1",
		"signature":   signRefs("order_1", "pay_2"),
	})

	w := postJSON(r, "/api/payment/verify", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	// The expected digest must never be echoed back.
	assert.NotContains(t, w.Body.String(), signRefs("order_1", "pay_1"))
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	r := newPaymentRouter()
	w := postJSON(r, "/api/payment/verify", `{"order_ref":"order_1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePaymentOrderUnconfiguredGateway(t *testing.T) {
	r := newPaymentRouter() // no provider key id, gateway unconfigured
	w := postJSON(r, "/api/payment/create-order", `{"amount": 100}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreatePaymentOrderRejectsNonPositiveAmount(t *testing.T) {
	r := newPaymentRouter()
	w := postJSON(r, "/api/payment/create-order", `{"amount": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
