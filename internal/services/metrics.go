package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 제보 접수 결과 (accepted | INVALID_CATEGORY | ... | error)
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_submissions_total",
			Help: "Citizen submissions by result",
		},
		[]string{"result"},
	)

	// 관리자 조치 결과
	moderationActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_moderation_actions_total",
			Help: "Moderation actions by action and result",
		},
		[]string{"action", "result"},
	)

	falseReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_false_reports_total",
			Help: "False-location reports by result",
		},
		[]string{"result"},
	)

	kakaoRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_kakao_requests_total",
			Help: "Kakao Local API calls by operation and result",
		},
		[]string{"op", "result"},
	)
)
