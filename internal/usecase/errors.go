package usecase

import "net/http"

// ErrorKind classifies a scan rejection.
type ErrorKind uint8

const (
	KindValidation ErrorKind = iota + 1
	KindAuthorization
	KindNotFound
	KindPolicy
	KindRateLimited
	KindTransientStore
	KindInternal
)

// Stable rejection codes returned to kiosks.
const (
	CodeInvalidCoordinates = "INVALID_COORDINATES"
	CodeInvalidQR          = "INVALID_QR"
	CodeQRNotFound         = "QR_NOT_FOUND"
	CodeQRRevoked          = "QR_REVOKED"
	CodeKioskNotFound      = "KIOSK_NOT_FOUND"
	CodeOutsideGeofence    = "OUTSIDE_GEOFENCE"
	CodeEmployeeNotFound   = "EMPLOYEE_NOT_FOUND"
	CodeTooManyScans       = "TOO_MANY_SCANS"
	CodeOutsideTimeWindow  = "OUTSIDE_TIME_WINDOW"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeAlarmNotRecorded   = "ALARM_NOT_RECORDED"
	CodeInternal           = "INTERNAL_ERROR"
)

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization, KindPolicy:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindRateLimited:
		return "rate_limited"
	case KindTransientStore:
		return "transient_store"
	}
	return "internal"
}
