package service

import (
	"testing"

	"github.com/carepal-health/carepal/internal/domain"
)

func seedClinicalStore() *memStore {
	s := newMemStore()
	s.add(domain.TableCustomer,
		domain.Record{"customer_id": "C1", "NIK": "317", "name": "Siti", "golongan_darah": "O"},
		domain.Record{"customer_id": "C2", "NIK": "318", "name": "Ani"},
	)
	s.add(domain.TablePregnancy,
		domain.Record{"id_kehamilan": "K1", "customer_id": "C1", "status_kehamilan": "Berjalan", "tanggal_hpht": "2025-01-01"},
	)
	s.add(domain.TableANCVisit,
		domain.Record{"id_kunjungan": "V1", "id_kehamilan": "K1", "tanggal_kunjungan": "2025-03-01", "usia_kehamilan": "8"},
		domain.Record{"id_kunjungan": "V2", "id_kehamilan": "K1", "tanggal_kunjungan": "2025-04-01", "usia_kehamilan": "12"},
		domain.Record{"id_kunjungan": "V9", "id_kehamilan": "K9", "tanggal_kunjungan": "2025-05-01", "usia_kehamilan": "20"},
	)
	s.add(domain.TableSupplement,
		domain.Record{"id_kunjungan": "V1", "nama_suplemen": "Asam Folat"},
		domain.Record{"id_kunjungan": "V2", "nama_suplemen": "Zat Besi"},
	)
	s.add(domain.TableTreatmentVisit,
		domain.Record{"visit_id": "T1", "customer_id": "C1", "visit_date": "2025-02-10"},
		domain.Record{"visit_id": "T2", "customer_id": "C1", "visit_date": "2025-05-20"},
	)
	s.add(domain.TableDiagnosis,
		domain.Record{"visit_id": "T1", "created_at": "2025-02-10", "diagnosis": "Anemia ringan"},
		domain.Record{"visit_id": "T9", "created_at": "2025-02-11", "diagnosis": "Lain"},
	)
	s.add(domain.TablePrescription,
		domain.Record{"visit_id": "T2", "start_date": "2025-05-20", "nama_obat": "Paracetamol"},
	)
	s.add(domain.TableLabResult,
		domain.Record{"customer_id": "C1", "test_date": "2025-01-15", "test_type": "hemoglobin"},
		domain.Record{"customer_id": "C1", "test_date": "2025-04-15", "test_type": "gula darah"},
	)
	return s
}

func testRetriever(s *memStore) *Retriever {
	knowledge := &domain.Knowledge{
		PregnancyGuidance:  "Panduan persiapan persalinan lengkap.",
		IntentDescriptions: "| cek_golongan_darah | Menampilkan golongan darah pengguna | contoh |",
	}
	return NewRetriever(s, knowledge, testLogger)
}

func TestRetrieverAncTrackerContext(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("anc_tracker", "C1")

	visits, ok := bundle.Data["anc_visits"].([]domain.Record)
	if !ok {
		t.Fatal("expected anc_visits in context")
	}
	if len(visits) != 2 {
		t.Fatalf("expected 2 visits for C1's pregnancy, got %d", len(visits))
	}
	if visits[0].Get("id_kunjungan") != "V2" {
		t.Errorf("expected newest visit first, got %s", visits[0].Get("id_kunjungan"))
	}
	if _, ok := bundle.Data["pregnancy_data"]; !ok {
		t.Error("expected pregnancy_data in context")
	}
}

func TestRetrieverSupplementJoin(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("riwayat_suplemen_kehamilan", "C1")

	supplements, ok := bundle.Data["supplements"].([]domain.Record)
	if !ok {
		t.Fatal("expected supplements in context")
	}
	if len(supplements) != 2 {
		t.Fatalf("expected 2 supplements, got %d", len(supplements))
	}
	// Joined visit date drives the ordering: V2 (April) before V1 (March).
	if supplements[0].Get("nama_suplemen") != "Zat Besi" {
		t.Errorf("expected newest supplement first, got %s", supplements[0].Get("nama_suplemen"))
	}
	if supplements[0].Get("tanggal_kunjungan") != "2025-04-01" {
		t.Errorf("expected joined visit date, got %q", supplements[0].Get("tanggal_kunjungan"))
	}
}

func TestRetrieverDiagnosisJoinsThroughVisits(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("riwayat_diagnosis", "C1")

	diagnoses, ok := bundle.Data["diagnoses"].([]domain.Record)
	if !ok {
		t.Fatal("expected diagnoses in context")
	}
	if len(diagnoses) != 1 {
		t.Fatalf("expected only C1's diagnosis, got %d", len(diagnoses))
	}
	if diagnoses[0].Get("diagnosis") != "Anemia ringan" {
		t.Errorf("unexpected diagnosis %s", diagnoses[0].Get("diagnosis"))
	}
}

func TestRetrieverAliasIntentsShareRoute(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	summary := r.Context("hasil_lab_ringkasan", "C1")
	detail := r.Context("hasil_lab_detail", "C1")

	a, _ := summary.Data["lab_results"].([]domain.Record)
	b, _ := detail.Data["lab_results"].([]domain.Record)
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("expected both lab intents to retrieve 2 rows, got %d and %d", len(a), len(b))
	}
	if a[0].Get("test_type") != "gula darah" {
		t.Errorf("expected newest lab result first, got %s", a[0].Get("test_type"))
	}
}

func TestRetrieverCustomerDataFlattensProfile(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("cek_data_customer", "C1")

	if bundle.Data["name"] != "Siti" {
		t.Errorf("expected name Siti, got %v", bundle.Data["name"])
	}
	if bundle.Data["golongan_darah"] != "O" {
		t.Errorf("expected blood type O, got %v", bundle.Data["golongan_darah"])
	}
	// Absent columns fall back to the placeholder.
	if bundle.Data["alamat"] != "Tidak tersedia" {
		t.Errorf("expected placeholder for missing alamat, got %v", bundle.Data["alamat"])
	}
}

func TestRetrieverBirthGuideUsesKnowledgeOnly(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("panduan_persiapan_persalinan", "C1")

	if len(bundle.Data) != 0 {
		t.Error("expected no record data for the knowledge intent")
	}
	if bundle.KnowledgeBase["pregnancy_info"] == "" {
		t.Error("expected pregnancy guidance in knowledge base")
	}
}

func TestRetrieverUnknownIntentYieldsEmptyData(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("intent_tidak_dikenal", "C1")

	if len(bundle.Data) != 0 {
		t.Errorf("expected empty data, got %v", bundle.Data)
	}
}

func TestRetrieverIntentDescriptionLookup(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("cek_golongan_darah", "C1")
	if bundle.IntentDescription != "Menampilkan golongan darah pengguna" {
		t.Errorf("unexpected description %q", bundle.IntentDescription)
	}
}

func TestUserHistorySummaryCapsAtThree(t *testing.T) {
	s := seedClinicalStore()
	s.add(domain.TableLabResult,
		domain.Record{"customer_id": "C1", "test_date": "2025-05-01", "test_type": "urin"},
		domain.Record{"customer_id": "C1", "test_date": "2025-06-01", "test_type": "kolesterol"},
	)
	r := testRetriever(s)

	summary := r.UserHistorySummary("C1")

	if len(summary.RecentLabResults) != 3 {
		t.Fatalf("expected 3 recent lab results, got %d", len(summary.RecentLabResults))
	}
	if summary.RecentLabResults[0].Get("test_type") != "kolesterol" {
		t.Errorf("expected newest lab first, got %s", summary.RecentLabResults[0].Get("test_type"))
	}
	if len(summary.RecentVisits) != 2 {
		t.Errorf("expected 2 recent visits, got %d", len(summary.RecentVisits))
	}
}

func TestRetrieverIsolatesCustomers(t *testing.T) {
	r := testRetriever(seedClinicalStore())

	bundle := r.Context("anc_tracker", "C2")
	visits, _ := bundle.Data["anc_visits"].([]domain.Record)
	if len(visits) != 0 {
		t.Errorf("expected no visits for C2, got %d", len(visits))
	}
}
