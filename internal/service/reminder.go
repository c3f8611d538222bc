package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

const dateLayout = "2006-01-02"

// ongoingStatuses are the pregnancy statuses the scheduler treats as active.
var ongoingStatuses = map[string]bool{
	"berjalan": true,
	"aktif":    true,
	"ongoing":  true,
}

// AncScheduler computes the next antenatal-care visit from the visit history,
// following the WHO / Ministry of Health cadence: monthly in trimester 2,
// biweekly weeks 29-36, weekly after 36. The output is a finished Indonesian
// message; it never goes through the text generator.
type AncScheduler struct {
	now    func() time.Time
	logger *zap.Logger
}

func NewAncScheduler(logger *zap.Logger) *AncScheduler {
	return &AncScheduler{now: time.Now, logger: logger}
}

// Reminder walks the decision tree over the retrieved ANC context. Every
// branch returns a complete message; data problems defer to a human midwife
// rather than guessing.
func (s *AncScheduler) Reminder(bundle *domain.ContextBundle) string {
	ancVisits := recordList(bundle.Data, "anc_visits")
	pregnancies := recordList(bundle.Data, "pregnancy_data")
	deliveries := recordList(bundle.Data, "deliveries")

	if len(pregnancies) == 0 {
		return "Belum ada data kehamilan yang tercatat untuk Anda.\n\n" +
			"Jika Anda sedang hamil, silakan lakukan pendaftaran kehamilan dan kunjungan ANC pertama untuk memulai pemantauan kesehatan ibu dan janin."
	}

	// Pregnancies arrive in load order, not sorted by date; the first row
	// is taken as the current pregnancy on purpose.
	pregnancy := pregnancies[0]
	pregnancyID := pregnancy.Get(domain.ColPregnancyID)
	status := strings.ToLower(pregnancy.Get(domain.ColPregnancyStatus))

	for _, delivery := range deliveries {
		if delivery.Get(domain.ColPregnancyID) == pregnancyID {
			return fmt.Sprintf("Berdasarkan data Anda, kehamilan dengan ID %s telah selesai dengan persalinan pada tanggal %s.\n\n"+
				"Untuk kehamilan yang sudah selesai, tidak diperlukan lagi kontrol ANC. Jika Anda memiliki kehamilan baru, silakan lakukan pendaftaran kehamilan baru untuk memulai pemantauan ANC yang sesuai.",
				pregnancyID, delivery.Get(domain.ColBirthDate))
		}
	}

	if !ongoingStatuses[status] {
		return fmt.Sprintf("Status kehamilan Anda saat ini tercatat sebagai '%s'.\n\n"+
			"Silakan konsultasikan dengan bidan atau dokter mengenai status kehamilan Anda dan jadwal kontrol yang sesuai.", status)
	}

	if len(ancVisits) == 0 {
		return s.firstVisitReminder(pregnancy)
	}

	return s.followUpReminder(pregnancy, ancVisits[0])
}

// firstVisitReminder schedules the initial visit from the last menstrual
// period date. Past week 8 the visit is due tomorrow; before that it lands
// exactly on week 8.
func (s *AncScheduler) firstVisitReminder(pregnancy domain.Record) string {
	lmpStr := pregnancy.Get(domain.ColLMPDate)
	if lmpStr != "" {
		if lmpDate, err := time.Parse(dateLayout, lmpStr); err == nil {
			today := s.now()
			daysPregnant := int(today.Sub(lmpDate).Hours() / 24)
			weeksPregnant := daysPregnant / 7

			if weeksPregnant >= 8 {
				nextVisit := today.AddDate(0, 0, 1).Format(dateLayout)
				return fmt.Sprintf("Berdasarkan tanggal HPHT Anda (%s), perkiraan usia kehamilan saat ini adalah sekitar %d minggu.\n\n"+
					"Anda belum memiliki riwayat kunjungan ANC. Sangat disarankan untuk segera melakukan kunjungan ANC pertama.\n\n"+
					"📅 **Jadwal yang disarankan: %s (besok)**\n\n"+
					"Kunjungan ANC pertama sebaiknya dilakukan pada usia kehamilan 8-12 minggu untuk:\n"+
					"• Pemeriksaan kondisi ibu dan janin\n"+
					"• Skrining risiko kehamilan\n"+
					"• Pemberian suplemen asam folat\n"+
					"• Penjadwalan kunjungan ANC selanjutnya",
					lmpStr, weeksPregnant, nextVisit)
			}

			daysToWait := 8*7 - daysPregnant
			nextVisit := today.AddDate(0, 0, daysToWait).Format(dateLayout)
			return fmt.Sprintf("Berdasarkan tanggal HPHT Anda (%s), perkiraan usia kehamilan saat ini adalah sekitar %d minggu.\n\n"+
				"📅 **Jadwal kunjungan ANC pertama yang disarankan: %s**\n"+
				"(Pada usia kehamilan 8 minggu)\n\n"+
				"Kunjungan ANC pertama sebaiknya dilakukan pada usia kehamilan 8-12 minggu.",
				lmpStr, weeksPregnant, nextVisit)
		}
	}

	return "Belum ada riwayat kunjungan ANC yang tercatat untuk kehamilan Anda saat ini.\n\n" +
		"📅 **Rekomendasi: Lakukan kunjungan ANC pertama secepatnya**\n\n" +
		"Sangat penting untuk melakukan pemeriksaan ANC rutin sesuai jadwal:\n" +
		"• Trimester 1 (0-12 minggu): minimal 1 kali kunjungan\n" +
		"• Trimester 2 (13-28 minggu): setiap 4 minggu sekali\n" +
		"• Trimester 3 (29-40 minggu): setiap 2 minggu sekali, dan setiap minggu setelah 36 minggu"
}

// followUpReminder projects the current gestational week forward from the
// last visit and applies the trimester cadence.
func (s *AncScheduler) followUpReminder(pregnancy, latestVisit domain.Record) string {
	lastVisitDateStr := latestVisit.Get(domain.ColANCVisitDate)
	lastWeeks, _ := strconv.Atoi(latestVisit.Get(domain.ColGestationalAge))

	if lastVisitDateStr == "" || lastWeeks == 0 {
		return "Data kunjungan ANC tidak lengkap. Silakan hubungi bidan untuk informasi jadwal kontrol berikutnya."
	}

	lastVisitDate, err := time.Parse(dateLayout, lastVisitDateStr)
	if err != nil {
		return "Format tanggal kunjungan tidak valid. Silakan hubungi bidan untuk informasi jadwal kontrol berikutnya."
	}

	today := s.now()
	daysElapsed := int(today.Sub(lastVisitDate).Hours() / 24)
	currentWeeks := lastWeeks + daysElapsed/7

	plan := nextVisitPlan(currentWeeks, lastWeeks)

	var scheduleLine, urgencyNote string
	if plan.Overdue {
		plan.NextVisitDate = today.AddDate(0, 0, 1)
		scheduleLine = fmt.Sprintf("**SEGERA - %s (besok)**", plan.NextVisitDate.Format(dateLayout))
		urgencyNote = "⚠️ **PENTING**: Anda sudah melewati jadwal kontrol yang disarankan."
	} else {
		plan.NextVisitDate = today.AddDate(0, 0, (plan.TargetWeek-currentWeeks)*7)
		scheduleLine = fmt.Sprintf("**%s**", plan.NextVisitDate.Format(dateLayout))
	}

	s.logger.Debug("anc reminder computed",
		zap.Int("current_week", plan.CurrentWeek),
		zap.Int("target_week", plan.TargetWeek),
		zap.Bool("overdue", plan.Overdue))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Berdasarkan kunjungan ANC terakhir Anda pada %s dengan usia kehamilan %d minggu:\n\n", lastVisitDateStr, lastWeeks)
	fmt.Fprintf(&sb, "📊 **Status Kehamilan Saat Ini:**\n")
	fmt.Fprintf(&sb, "• Usia kehamilan: sekitar %d minggu\n", currentWeeks)
	fmt.Fprintf(&sb, "• Status: %s\n\n", valueOr(pregnancy, domain.ColPregnancyStatus, "Berjalan"))
	fmt.Fprintf(&sb, "📅 **Jadwal Kontrol ANC Berikutnya:**\n")
	fmt.Fprintf(&sb, "• Tanggal: %s\n", scheduleLine)
	fmt.Fprintf(&sb, "• Target usia kehamilan: %d minggu\n", plan.TargetWeek)
	fmt.Fprintf(&sb, "• Jenis kontrol: %s\n\n%s", plan.IntervalLabel, urgencyNote)

	switch {
	case currentWeeks <= 12:
		sb.WriteString("\n\n📋 **Trimester 1**: Pemeriksaan penting untuk memantau perkembangan awal janin dan deteksi risiko.")
	case currentWeeks <= 28:
		sb.WriteString("\n\n📋 **Trimester 2**: Kontrol setiap 4 minggu untuk memantau pertumbuhan janin dan kesehatan ibu.")
	case currentWeeks <= 36:
		sb.WriteString("\n\n📋 **Trimester 3**: Kontrol setiap 2 minggu untuk persiapan persalinan dan pemantauan intensif.")
	default:
		sb.WriteString("\n\n📋 **Menjelang Persalinan**: Kontrol setiap minggu untuk memantau tanda-tanda persalinan dan kesiapan ibu.")
	}

	sb.WriteString("\n\n💡 **Catatan**: Harap hadir sesuai jadwal agar kondisi ibu dan janin tetap terpantau dengan baik. Jika ada keluhan atau gejala tidak normal, segera konsultasikan dengan bidan atau dokter.")

	return sb.String()
}

// nextVisitPlan applies the cadence rules. The caller fills NextVisitDate,
// which depends on the clock.
func nextVisitPlan(currentWeeks, lastWeeks int) domain.AncReminderPlan {
	plan := domain.AncReminderPlan{CurrentWeek: currentWeeks}

	switch {
	case currentWeeks <= 12:
		plan.TargetWeek = 13
		plan.IntervalLabel = "memasuki trimester 2"
	case currentWeeks <= 28:
		if currentWeeks-lastWeeks >= 4 {
			plan.TargetWeek = currentWeeks
			plan.IntervalLabel = "kontrol trimester 2 (terlambat)"
		} else {
			plan.TargetWeek = lastWeeks + 4
			plan.IntervalLabel = "kontrol trimester 2"
		}
	case currentWeeks <= 36:
		if currentWeeks-lastWeeks >= 2 {
			plan.TargetWeek = currentWeeks
			plan.IntervalLabel = "kontrol trimester 3 (terlambat)"
		} else {
			plan.TargetWeek = lastWeeks + 2
			plan.IntervalLabel = "kontrol trimester 3"
		}
	default:
		if currentWeeks-lastWeeks >= 1 {
			plan.TargetWeek = currentWeeks
			plan.IntervalLabel = "kontrol menjelang persalinan (terlambat)"
		} else {
			plan.TargetWeek = lastWeeks + 1
			plan.IntervalLabel = "kontrol menjelang persalinan"
		}
	}

	plan.Overdue = plan.TargetWeek <= currentWeeks
	return plan
}

// recordList pulls a []Record value out of a context data map.
func recordList(data map[string]any, key string) []domain.Record {
	if data == nil {
		return nil
	}
	rows, _ := data[key].([]domain.Record)
	return rows
}
