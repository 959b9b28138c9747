package router

import (
	"net/http"

	"prescription-api-app/internal/presentation/di"
	"prescription-api-app/internal/presentation/http/middleware"
)

// NewRouter 新しいルーターを作成
func NewRouter(container *di.Container) http.Handler {
	mux := http.NewServeMux()

	// Prescription API
	prescriptionHandler := container.PrescriptionHandler()
	mux.HandleFunc("POST /api/v1/prescriptions/analyze", prescriptionHandler.HandleAnalyze)

	// Medication API
	medicationHandler := container.MedicationHandler()
	mux.HandleFunc("GET /api/v1/medications", medicationHandler.HandleList)
	mux.HandleFunc("POST /api/v1/medications", medicationHandler.HandleCreate)
	mux.HandleFunc("PUT /api/v1/medications/{id}", medicationHandler.HandleReplace)
	mux.HandleFunc("POST /api/v1/medications/contraindications", medicationHandler.HandleContraindications)

	// Health check
	mux.Handle(middleware.HealthPath, container.HealthHandler())

	// ミドルウェアの適用（外側から CORS → Session → Logger → Recovery）
	logger := container.Logger()
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.Logger(logger)(h)
	h = middleware.Session(h)
	h = middleware.CORS(h)

	return h
}
