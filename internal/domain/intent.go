package domain

// QueryDomain is the coarse split deciding which intent vocabulary applies.
type QueryDomain string

const (
	DomainPregnancy QueryDomain = "KEHAMILAN"
	DomainGeneral   QueryDomain = "UMUM"
)

// PregnancyIntents is the ordered label vocabulary of the pregnancy intent
// model. The position of each name is the class index the model emits; the
// ordering is a data contract with the trained model, not a convention.
// Reordering silently corrupts every downstream context lookup.
var PregnancyIntents = []string{
	"anc_tracker",                  // 0
	"imunisasi_tracker",            // 1
	"panduan_persiapan_persalinan", // 2
	"reminder_kontrol_kehamilan",   // 3
	"riwayat_persalinan",           // 4
	"riwayat_suplemen_kehamilan",   // 5
}

// GeneralIntents is the ordered label vocabulary of the general intent model.
// Same positional contract as PregnancyIntents.
var GeneralIntents = []string{
	"cek_data_customer",       // 0
	"cek_golongan_darah",      // 1
	"detail_dokter",           // 2
	"detail_preskripsi_obat",  // 3
	"hasil_lab_detail",        // 4
	"hasil_lab_ringkasan",     // 5
	"jadwal_dokter",           // 6
	"riwayat_berobat",         // 7
	"riwayat_diagnosis",       // 8
	"riwayat_kondisi_fisik",   // 9
	"riwayat_preskripsi_obat", // 10
}

const (
	// DefaultPregnancyIntent is substituted when the pregnancy classifier
	// emits an out-of-range class or no usable prediction exists.
	DefaultPregnancyIntent = "panduan_persiapan_persalinan"
	// DefaultGeneralIntent is the general-domain equivalent.
	DefaultGeneralIntent = "cek_data_customer"

	// IntentAncReminder bypasses the text generator and is answered by the
	// deterministic scheduler.
	IntentAncReminder = "reminder_kontrol_kehamilan"
	// IntentBirthGuide is answered from the knowledge base, not record tables.
	IntentBirthGuide = "panduan_persiapan_persalinan"
)

// Vocabulary returns the ordered label list for a domain.
func (d QueryDomain) Vocabulary() []string {
	if d == DomainPregnancy {
		return PregnancyIntents
	}
	return GeneralIntents
}

// DefaultIntent returns the fallback intent for a domain.
func (d QueryDomain) DefaultIntent() string {
	if d == DomainPregnancy {
		return DefaultPregnancyIntent
	}
	return DefaultGeneralIntent
}

// ClassificationMethod tags how a classification was produced, so callers
// handle exactly one shape instead of sniffing near-duplicate fallbacks.
type ClassificationMethod string

const (
	// MethodClassifier means the sequence classifier produced the result.
	MethodClassifier ClassificationMethod = "classifier"
	// MethodFallbackSimilarity means the similarity gate's best match was used.
	MethodFallbackSimilarity ClassificationMethod = "fallback_similarity"
	// MethodFallbackDefault means the fixed per-domain default was used.
	// Confidence 0.5 signals the gate ran cleanly but matched nothing;
	// 0.1 signals a hard error. Both values are load-bearing for callers.
	MethodFallbackDefault ClassificationMethod = "fallback_default"
)

// Prediction is one ranked intent candidate. Rank 1 is the highest.
type Prediction struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Rank       int     `json:"rank"`
}

// Classification is the outcome of intent resolution for one input.
// Predictions holds the top-2 candidates; Predictions[0] always mirrors
// Intent/Confidence.
type Classification struct {
	Intent      string               `json:"intent"`
	Confidence  float64              `json:"confidence"`
	Method      ClassificationMethod `json:"method"`
	Predictions []Prediction         `json:"predictions"`
}

// IntentExample is one labeled training sentence, used only to build the
// similarity index. Immutable after load.
type IntentExample struct {
	Intent string
	Text   string
}

// SimilarityMatch is the per-intent aggregate of example similarities.
type SimilarityMatch struct {
	Intent         string  `json:"intent"`
	MaxSimilarity  float64 `json:"max_similarity"`
	MeanSimilarity float64 `json:"mean_similarity"`
}

// SimilarityResult is the outcome of the out-of-scope gate.
type SimilarityResult struct {
	IsValid       bool              `json:"is_valid"`
	MaxSimilarity float64           `json:"max_similarity"`
	BestMatches   []SimilarityMatch `json:"best_matches"`
}
