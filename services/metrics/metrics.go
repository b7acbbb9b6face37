// Package metrics exposes the registry counts as Prometheus gauges.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/shule/core/school"
)

const namespace = "shule"

type Collector struct {
	registry           *prometheus.Registry
	students           *prometheus.GaugeVec
	teachers           prometheus.Gauge
	grades             prometheus.Gauge
	attendance         prometheus.Gauge
	outstandingFees    prometheus.Gauge
	orphanedGrades     prometheus.Gauge
	orphanedAttendance prometheus.Gauge
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		students: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "students",
			Help:      "Number of students by status.",
		}, []string{"status"}),
		teachers:           gauge("teachers", "Number of teachers."),
		grades:             gauge("grades", "Number of grade records."),
		attendance:         gauge("attendance_records", "Number of attendance records."),
		outstandingFees:    gauge("outstanding_fees", "Sum of the outstanding student fees."),
		orphanedGrades:     gauge("orphaned_grades", "Grades referencing a missing student."),
		orphanedAttendance: gauge("orphaned_attendance_records", "Attendance records referencing a missing student."),
	}
	c.registry.MustRegister(
		c.students, c.teachers, c.grades, c.attendance,
		c.outstandingFees, c.orphanedGrades, c.orphanedAttendance,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe sets every gauge from the summary.
func (c *Collector) Observe(sum school.Summary) {
	c.students.Reset()
	for _, status := range []string{school.StatusActive, school.StatusInactive, school.StatusGraduated} {
		c.students.WithLabelValues(status).Set(0)
	}
	for status, n := range sum.StudentsByStatus {
		c.students.WithLabelValues(status).Set(float64(n))
	}
	c.teachers.Set(float64(sum.Teachers))
	c.grades.Set(float64(sum.Grades))
	c.attendance.Set(float64(sum.Attendance))
	c.outstandingFees.Set(sum.OutstandingFees)
	c.orphanedGrades.Set(float64(sum.OrphanedGrades))
	c.orphanedAttendance.Set(float64(sum.OrphanedAttendance))
}

// WriteTextfile writes the gauges in the format read by the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, "writing metrics")
	}
	return nil
}
