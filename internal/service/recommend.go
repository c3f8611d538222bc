package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// recommendationCount is the fixed size of every recommendation list.
const recommendationCount = 4

// defaultRecommendations are always-safe historical-data queries used to pad
// any list that comes up short.
var defaultRecommendations = []string{
	"Tampilkan ringkasan data kesehatan saya",
	"Apakah ada catatan kunjungan terakhir?",
	"Siapa dokter yang biasa menangani saya?",
	"Golongan darah saya apa?",
}

// contextualCandidates maps an intent to follow-up questions that deepen the
// same topic. Filtered by data availability before use.
var contextualCandidates = map[string][]string{
	"hasil_lab_ringkasan": {
		"Tampilkan tren hasil lab dari 3 bulan terakhir",
		"Apakah ada perubahan nilai lab dari kunjungan sebelumnya?",
		"Kapan terakhir kali melakukan tes lab?",
	},
	"riwayat_diagnosis": {
		"Tampilkan catatan diagnosis dari kunjungan-kunjungan sebelumnya",
		"Apakah ada perubahan diagnosis dari waktu ke waktu?",
		"Kapan terakhir menerima diagnosis baru?",
	},
	"jadwal_dokter": {
		"Siapa dokter spesialis yang biasa menangani saya?",
		"Tampilkan riwayat kunjungan ke dokter tertentu",
		"Di mana lokasi praktik dokter yang biasa saya datangi?",
	},
	"riwayat_preskripsi_obat": {
		"Tampilkan riwayat obat yang pernah diresepkan",
		"Apa catatan dosis obat dari resep sebelumnya?",
		"Kapan terakhir mendapat resep obat baru?",
	},
	"anc_tracker": {
		"Tampilkan tren berat badan dari kunjungan ANC sebelumnya",
		"Bagaimana riwayat tekanan darah selama kehamilan ini?",
		"Apakah ada catatan detak jantung janin dari pemeriksaan sebelumnya?",
	},
}

// contextualAliases fold detail intents onto the same candidate lists.
var contextualAliases = map[string]string{
	"hasil_lab_detail":       "hasil_lab_ringkasan",
	"detail_diagnosis":       "riwayat_diagnosis",
	"detail_preskripsi_obat": "riwayat_preskripsi_obat",
}

// Recommender produces follow-up question suggestions. The primary path asks
// the generator, seeded with the user's history; every path ends with exactly
// four questions.
type Recommender struct {
	retriever *Retriever
	store     domain.RecordStore
	generator domain.TextGenerator // nil means rule-based only
	logger    *zap.Logger
}

func NewRecommender(retriever *Retriever, store domain.RecordStore, generator domain.TextGenerator, logger *zap.Logger) *Recommender {
	return &Recommender{retriever: retriever, store: store, generator: generator, logger: logger}
}

// Welcome returns the four suggestions shown at session start.
func (r *Recommender) Welcome(ctx context.Context, customerID string) []string {
	history := r.retriever.UserHistorySummary(customerID)

	if r.generator != nil {
		if recs, ok := r.generated(ctx, customerID, history); ok {
			return recs
		}
	}

	r.logger.Info("using rule-based recommendations", zap.String("customer_id", customerID))
	return r.ruleBased(history, customerID)
}

// generated asks the text generator for suggestions and validates the result.
// A list with fewer than four substantial lines is padded with defaults; a
// generator failure reports not-ok so the caller falls back.
func (r *Recommender) generated(ctx context.Context, customerID string, history HistorySummary) ([]string, bool) {
	name := "Customer"
	if row := r.retriever.customerRow(customerID); row != nil {
		name = valueOr(row, domain.ColName, name)
	}

	prompt := buildRecommendationPrompt(name, history)
	reply, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		r.logger.Warn("recommendation generation failed", zap.Error(err))
		return nil, false
	}

	var questions []string
	for _, line := range strings.Split(reply, "\n") {
		q := strings.TrimSpace(line)
		// Short lines are numbering artifacts or filler, not questions.
		if len(q) > 10 {
			questions = append(questions, q)
		}
		if len(questions) == recommendationCount {
			break
		}
	}

	if len(questions) < recommendationCount {
		questions = padWithDefaults(questions)
	}
	return questions[:recommendationCount], true
}

func buildRecommendationPrompt(customerName string, history HistorySummary) string {
	data := map[string]any{
		"recent_visits":        history.RecentVisits,
		"recent_diagnoses":     history.RecentDiagnoses,
		"recent_prescriptions": history.RecentPrescriptions,
		"recent_lab_results":   history.RecentLabResults,
	}

	var sb strings.Builder
	sb.WriteString("Berdasarkan riwayat medis pasien berikut, buatlah 4 pertanyaan rekomendasi yang HANYA fokus pada data historis yang sudah tercatat.\n\n")
	fmt.Fprintf(&sb, "NAMA PASIEN: %s\n\n", customerName)
	sb.WriteString("RIWAYAT MEDIS:\n")
	sb.WriteString(formatDataContext(data))
	sb.WriteString("\n\nATURAN KETAT:\n")
	sb.WriteString("- HANYA buat pertanyaan tentang data historis yang sudah ada\n")
	sb.WriteString("- JANGAN buat pertanyaan yang meminta opini medis atau diagnosis\n")
	sb.WriteString("- JANGAN rekomendasikan pertanyaan konsultasi medis\n")
	sb.WriteString("- Fokus pada kueri data: \"Tampilkan...\", \"Apakah ada catatan...\", \"Bagaimana tren...\"\n\n")
	sb.WriteString("FORMAT JAWABAN:\n")
	sb.WriteString("Berikan hanya 4 pertanyaan, satu per baris, tanpa numbering atau bullet points.\n\n")
	sb.WriteString("Pertanyaan rekomendasi:\n")
	return sb.String()
}

// ruleBased emits one recommendation per data category, preferring questions
// the customer's records can actually answer.
func (r *Recommender) ruleBased(history HistorySummary, customerID string) []string {
	var recs []string

	if len(history.RecentLabResults) > 0 {
		testType := valueOr(history.RecentLabResults[0], "test_type", "lab")
		recs = append(recs, fmt.Sprintf("Tampilkan tren hasil %s dari kunjungan sebelumnya", testType))
	} else {
		recs = append(recs, "Apakah ada catatan hasil lab dalam riwayat saya?")
	}

	if len(history.RecentDiagnoses) > 0 {
		recs = append(recs, "Tampilkan catatan diagnosis dari kunjungan-kunjungan sebelumnya")
	} else {
		recs = append(recs, "Apakah ada riwayat diagnosis yang tercatat untuk saya?")
	}

	avail := r.availability(customerID)
	switch {
	case avail.ancVisits:
		recs = append(recs, "Tampilkan riwayat kunjungan ANC yang sudah dilakukan")
	case len(history.RecentVisits) > 0:
		recs = append(recs, "Apakah ada catatan kunjungan kesehatan sebelumnya?")
	default:
		recs = append(recs, "Siapa dokter yang tersedia untuk konsultasi?")
	}

	switch {
	case len(history.RecentVisits) > 0:
		recs = append(recs, "Tampilkan riwayat obat yang pernah diresepkan")
	case avail.pregnancies:
		recs = append(recs, "Apakah ada catatan suplemen kehamilan yang pernah dikonsumsi?")
	default:
		recs = append(recs, "Golongan darah saya apa?")
	}

	return padWithDefaults(recs)[:recommendationCount]
}

// Contextual suggests follow-ups for the intent just answered, dropping
// candidates whose topic has no backing data, then topping up with defaults.
func (r *Recommender) Contextual(intent, customerID string) []string {
	if canonical, ok := contextualAliases[intent]; ok {
		intent = canonical
	}

	avail := r.availability(customerID)

	var recs []string
	for _, candidate := range contextualCandidates[intent] {
		if avail.supports(candidate) {
			recs = append(recs, candidate)
		}
	}

	return padWithDefaults(recs)[:recommendationCount]
}

// dataAvailability flags which record categories hold at least one row for
// the customer.
type dataAvailability struct {
	labs          bool
	diagnoses     bool
	prescriptions bool
	ancVisits     bool
	treatments    bool
	pregnancies   bool
}

func (r *Recommender) availability(customerID string) dataAvailability {
	visitIDs := r.retriever.visitIDs(customerID)
	_, pregnancyIDs := r.retriever.pregnancies(customerID)

	return dataAvailability{
		labs:          len(filterBy(r.store.Table(domain.TableLabResult), domain.ColCustomerID, customerID)) > 0,
		diagnoses:     len(filterIn(r.store.Table(domain.TableDiagnosis), domain.ColVisitID, visitIDs)) > 0,
		prescriptions: len(filterIn(r.store.Table(domain.TablePrescription), domain.ColVisitID, visitIDs)) > 0,
		ancVisits:     len(filterIn(r.store.Table(domain.TableANCVisit), domain.ColPregnancyID, pregnancyIDs)) > 0,
		treatments:    len(visitIDs) > 0,
		pregnancies:   len(pregnancyIDs) > 0,
	}
}

// supports checks a candidate question's topic keywords against the flags.
// A candidate with no recognized keyword is always allowed.
func (a dataAvailability) supports(candidate string) bool {
	lower := strings.ToLower(candidate)
	switch {
	case strings.Contains(lower, "obat") || strings.Contains(lower, "resep"):
		return a.prescriptions
	case strings.Contains(lower, "lab"):
		return a.labs
	case strings.Contains(lower, "diagnosis"):
		return a.diagnoses
	case strings.Contains(lower, "anc") || strings.Contains(lower, "janin") || strings.Contains(lower, "kehamilan"):
		return a.ancVisits
	case strings.Contains(lower, "kunjungan"):
		return a.treatments
	default:
		return true
	}
}

// padWithDefaults appends default questions the list does not already hold
// until it reaches the fixed size.
func padWithDefaults(recs []string) []string {
	for _, def := range defaultRecommendations {
		if len(recs) >= recommendationCount {
			break
		}
		seen := false
		for _, existing := range recs {
			if existing == def {
				seen = true
				break
			}
		}
		if !seen {
			recs = append(recs, def)
		}
	}
	return recs
}
