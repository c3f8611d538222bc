package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// Canned replies for degraded paths. User-facing, so fixed rather than
// generated.
const (
	msgGeneratorDown    = "Maaf, sistem sedang mengalami gangguan. Silakan coba lagi nanti."
	msgEmptyGeneration  = "Maaf, saya tidak dapat memberikan jawaban yang tepat saat ini."
	msgGenerationFailed = "Maaf, terjadi kesalahan dalam memproses pertanyaan Anda. Silakan coba lagi."
)

const (
	// maxListItems caps each record list in the prompt to the most recent rows.
	maxListItems = 3
	// maxKnowledgeChars truncates free-text knowledge fields in the prompt.
	maxKnowledgeChars = 2000
)

// ComposeInput is everything the composer needs for one answer.
type ComposeInput struct {
	UserInput      string
	Classification domain.Classification
	// Contexts holds the retrieved bundle for each top prediction, primary
	// first. Always at least one entry.
	Contexts []*domain.ContextBundle
	Customer *domain.Customer
}

// Composer turns retrieved context into a finished reply. The ANC reminder
// intent bypasses the generator entirely; everything else is phrased by the
// text generator from a structured prompt.
type Composer struct {
	generator domain.TextGenerator // nil means the generator is unavailable
	scheduler *AncScheduler
	logger    *zap.Logger
}

func NewComposer(generator domain.TextGenerator, scheduler *AncScheduler, logger *zap.Logger) *Composer {
	return &Composer{generator: generator, scheduler: scheduler, logger: logger}
}

// Compose produces the reply text. It never returns an error: degraded paths
// resolve to fixed apologies so the conversation keeps flowing.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) string {
	if c.generator == nil {
		return msgGeneratorDown
	}

	primary := in.Contexts[0]

	// Scheduling is deterministic; generating around it only adds noise.
	if in.Classification.Intent == domain.IntentAncReminder {
		return c.scheduler.Reminder(primary)
	}

	prompt := c.buildPrompt(in)

	reply, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error("answer generation failed", zap.Error(err))
		return msgGenerationFailed
	}
	if strings.TrimSpace(reply) == "" {
		return msgEmptyGeneration
	}
	return strings.TrimSpace(reply)
}

func (c *Composer) buildPrompt(in ComposeInput) string {
	cls := in.Classification
	primary := in.Contexts[0]

	intentContext := fmt.Sprintf("INTENT YANG TERDETEKSI: %s (confidence: %.3f)", cls.Intent, cls.Confidence)
	contextInstruction := "Jawab berdasarkan intent yang terdeteksi"

	if len(cls.Predictions) > 1 {
		gap := cls.Predictions[0].Confidence - cls.Predictions[1].Confidence

		intentContext += "\n\nTOP 2 PREDIKSI:"
		for i, pred := range cls.Predictions {
			intentContext += fmt.Sprintf("\n%d. %s (confidence: %.3f)", i+1, pred.Intent, pred.Confidence)
		}
		intentContext += fmt.Sprintf("\n\nCONFIDENCE GAP: %.3f", gap)

		switch {
		case gap > 0.5:
			intentContext += "\n→ TINGKAT KEYAKINAN TINGGI pada intent utama"
			contextInstruction = "Fokus penuh pada PRIMARY INTENT untuk menjawab"
		case gap > 0.2:
			intentContext += "\n→ TINGKAT KEYAKINAN MENENGAH pada intent utama"
			contextInstruction = "Fokus pada PRIMARY INTENT, tapi pertimbangkan kemungkinan ALTERNATIVE INTENT jika relevan"
		default:
			intentContext += "\n→ PERTANYAAN AMBIGU - confidence gap rendah"
			contextInstruction = "Pertimbangkan kedua intent yang mungkin dan pilih jawaban yang paling relevan dengan pertanyaan"
		}
	}

	var sb strings.Builder
	sb.WriteString("Anda adalah asisten chatbot untuk sistem kesehatan ibu hamil. Tugas Anda adalah menjawab pertanyaan pengguna berdasarkan data medis mereka dan knowledge base yang tersedia.\n\n")
	sb.WriteString("ATURAN KETAT:\n")
	sb.WriteString("1. HANYA jawab berdasarkan data yang disediakan dalam konteks\n")
	sb.WriteString("2. JANGAN berikan saran medis atau diagnosis\n")
	sb.WriteString("3. JANGAN buat asumsi tentang kondisi kesehatan\n")
	sb.WriteString("4. Jika data tidak tersedia, katakan dengan jelas\n")
	sb.WriteString("5. Gunakan bahasa Indonesia yang sopan dan ramah\n")
	sb.WriteString("6. Fokus pada informasi administratif dan faktual saja\n\n")

	fmt.Fprintf(&sb, "INFORMASI PENGGUNA:\n- Nama: %s\n- NIK: %s\n- Customer ID: %s\n\n",
		customerField(in.Customer, func(c *domain.Customer) string { return c.Name }),
		customerField(in.Customer, func(c *domain.Customer) string { return c.NIK }),
		customerField(in.Customer, func(c *domain.Customer) string { return c.CustomerID }))

	fmt.Fprintf(&sb, "PERTANYAAN PENGGUNA: %q\n\n", in.UserInput)
	sb.WriteString(intentContext)
	fmt.Fprintf(&sb, "\n\nDESKRIPSI INTENT: %s\n\n", orNA(primary.IntentDescription))
	sb.WriteString(intentInstruction(cls.Intent))
	sb.WriteString("\n\nDATA RELEVAN DARI DATABASE:\n")
	sb.WriteString(formatContexts(in.Contexts, cls.Predictions))
	sb.WriteString("\n\nKNOWLEDGE BASE:\n")
	sb.WriteString(formatKnowledgeBase(primary.KnowledgeBase))
	sb.WriteString("\n\nINSTRUKSI JAWABAN:\n")
	fmt.Fprintf(&sb, "- %s\n", contextInstruction)
	sb.WriteString("- Jawab dalam bahasa Indonesia\n")
	sb.WriteString("- Gunakan data yang tersedia di atas\n")
	sb.WriteString("- Jika data kosong atau tidak relevan, jelaskan dengan sopan\n")
	sb.WriteString("- Berikan informasi yang akurat dan mudah dipahami\n")
	sb.WriteString("- JANGAN memberikan saran medis, hanya informasi faktual\n")
	sb.WriteString("- Jika diminta saran medis, arahkan untuk konsultasi dengan dokter\n\n")
	sb.WriteString("Jawaban Anda:\n")

	return sb.String()
}

// formatContexts renders the primary bundle and any alternate-prediction
// bundles as labeled sections.
func formatContexts(contexts []*domain.ContextBundle, predictions []domain.Prediction) string {
	if len(contexts) == 1 {
		return formatDataContext(contexts[0].Data)
	}

	var sections []string
	sections = append(sections, "=== DATA UNTUK INTENT UTAMA ===")
	sections = append(sections, fmt.Sprintf("Intent: %s", orNA(contexts[0].Intent)))
	sections = append(sections, formatDataContext(contexts[0].Data))

	for i, alt := range contexts[1:] {
		predIdx := i + 1
		label := alt.Intent
		conf := 0.0
		if predIdx < len(predictions) {
			label = predictions[predIdx].Intent
			conf = predictions[predIdx].Confidence
		}
		sections = append(sections, fmt.Sprintf("\n=== DATA UNTUK INTENT ALTERNATIF #%d ===", predIdx))
		sections = append(sections, fmt.Sprintf("Intent: %s (confidence: %.3f)", label, conf))
		sections = append(sections, formatDataContext(alt.Data))
	}

	return strings.Join(sections, "\n")
}

// formatDataContext renders the retrieved data map. Keys and record fields
// are sorted so the prompt is deterministic for a given context.
func formatDataContext(data map[string]any) string {
	if len(data) == 0 {
		return "Tidak ada data yang tersedia."
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sections []string
	for _, key := range keys {
		switch value := data[key].(type) {
		case []domain.Record:
			if len(value) == 0 {
				continue
			}
			sections = append(sections, fmt.Sprintf("\n%s:", strings.ToUpper(key)))
			for i, row := range value {
				if i >= maxListItems {
					break
				}
				sections = append(sections, fmt.Sprintf("  %d. %s", i+1, formatRecord(row)))
			}
		case domain.Record:
			if len(value) == 0 {
				continue
			}
			sections = append(sections, fmt.Sprintf("\n%s:", strings.ToUpper(key)))
			for _, field := range sortedFields(value) {
				sections = append(sections, fmt.Sprintf("  %s: %s", field, value[field]))
			}
		case string:
			if strings.TrimSpace(value) == "" {
				continue
			}
			sections = append(sections, fmt.Sprintf("\n%s:\n  %s", strings.ToUpper(key), value))
		}
	}

	if len(sections) == 0 {
		return "Tidak ada data yang tersedia."
	}
	return strings.Join(sections, "\n")
}

func formatRecord(row domain.Record) string {
	fields := sortedFields(row)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, row[f]))
	}
	return strings.Join(parts, ", ")
}

// sortedFields returns the non-empty column names of a record, sorted.
func sortedFields(row domain.Record) []string {
	fields := make([]string, 0, len(row))
	for k, v := range row {
		if strings.TrimSpace(v) != "" {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}

func formatKnowledgeBase(kb map[string]string) string {
	if len(kb) == 0 {
		return "Tidak ada knowledge base yang relevan."
	}

	keys := make([]string, 0, len(kb))
	for k := range kb {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sections []string
	for _, key := range keys {
		value := kb[key]
		if strings.TrimSpace(value) == "" {
			continue
		}
		if len(value) > maxKnowledgeChars {
			// Back off to a rune boundary so the cut never splits a
			// multi-byte character.
			cut := maxKnowledgeChars
			for cut > 0 && !utf8.RuneStart(value[cut]) {
				cut--
			}
			value = value[:cut] + "..."
		}
		sections = append(sections, fmt.Sprintf("\n%s:\n%s", strings.ToUpper(key), value))
	}

	if len(sections) == 0 {
		return "Tidak ada knowledge base yang relevan."
	}
	return strings.Join(sections, "\n")
}

// intentInstruction returns the per-intent answering guideline block.
func intentInstruction(intent string) string {
	instructions := map[string]string{
		"riwayat_persalinan": "INSTRUKSI KHUSUS UNTUK RIWAYAT PERSALINAN:\n" +
			"- FOKUS UTAMA pada data DELIVERIES (persalinan) yang berisi informasi persalinan aktual\n" +
			"- Tampilkan: tanggal lahir, tempat lahir, cara persalinan, jenis kelamin bayi, berat bayi, panjang bayi, komplikasi\n" +
			"- Data PREGNANCIES hanya sebagai konteks kehamilan yang terkait\n" +
			"- Jika tidak ada data persalinan, jelaskan bahwa belum ada riwayat persalinan yang tercatat\n" +
			"- Jangan fokus hanya pada data kehamilan, tetapi prioritaskan informasi persalinan",

		"anc_tracker": "INSTRUKSI KHUSUS UNTUK ANC TRACKER:\n" +
			"- Tampilkan riwayat kunjungan ANC dengan detail: tanggal, usia kehamilan, berat badan, tekanan darah\n" +
			"- Sertakan informasi kehamilan sebagai konteks\n" +
			"- Urutkan dari kunjungan terbaru ke terlama",

		"imunisasi_tracker": "INSTRUKSI KHUSUS UNTUK IMUNISASI TRACKER:\n" +
			"- Fokus pada data imunisasi: jenis vaksin, tanggal pemberian, dosis\n" +
			"- Tampilkan jadwal imunisasi yang sudah dilakukan dan yang mungkin belum",

		"riwayat_suplemen_kehamilan": "INSTRUKSI KHUSUS UNTUK SUPLEMEN KEHAMILAN:\n" +
			"- Fokus pada data suplemen yang pernah dikonsumsi\n" +
			"- Tampilkan: nama suplemen, dosis, tanggal mulai konsumsi\n" +
			"- Hubungkan dengan kunjungan ANC yang terkait",

		"reminder_kontrol_kehamilan": "INSTRUKSI KHUSUS UNTUK REMINDER KONTROL:\n" +
			"- Hitung dan tampilkan jadwal kontrol berikutnya berdasarkan usia kehamilan\n" +
			"- Berikan panduan interval kontrol sesuai trimester",

		"panduan_persiapan_persalinan": "INSTRUKSI KHUSUS UNTUK PANDUAN PERSIAPAN PERSALINAN:\n" +
			"- Gunakan knowledge base untuk memberikan informasi umum tentang persiapan persalinan\n" +
			"- Tidak perlu data personal kecuali sebagai konteks umur kehamilan",
	}

	if instr, ok := instructions[intent]; ok {
		return instr
	}
	return "Jawab sesuai dengan intent yang terdeteksi dan data yang tersedia."
}

func customerField(c *domain.Customer, get func(*domain.Customer) string) string {
	if c == nil {
		return "N/A"
	}
	return orNA(get(c))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
