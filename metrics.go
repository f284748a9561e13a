/*
   Copyright (c) 2023, btnmasher
   All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

package debugirc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered on the default prometheus registry; the host process owns
// exposition.
var (
	metricConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debugirc_connections_accepted_total",
		Help: "Total number of accepted client connections",
	})

	metricSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "debugirc_sessions_active",
		Help: "Number of currently live sessions",
	})

	metricMessagesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debugirc_messages_delivered_total",
		Help: "Total number of messages written to client sockets",
	})

	metricBroadcastFanout = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debugirc_broadcast_fanout_total",
		Help: "Total number of per-member deliveries caused by channel broadcasts",
	})

	metricTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debugirc_timeouts_total",
		Help: "Total number of connections torn down by deadline",
	}, []string{"kind"})
)
