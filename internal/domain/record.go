package domain

// Record is one row of a record table, keyed by column name. All values are
// kept as strings, mirroring the flat CSV snapshots the tables load from.
type Record map[string]string

// Table names. These match the source table/file names one to one.
const (
	TableCustomer          = "customer"
	TableANCVisit          = "anc_kunjungan"
	TableDiagnosis         = "diagnosis"
	TableDoctor            = "dokter"
	TableLabResult         = "hasil_lab"
	TablePhysicalCondition = "historikal_kondisi_fisik"
	TableImmunization      = "imunisasi_ibu_hamil"
	TableDoctorSchedule    = "jadwal_dokter"
	TablePregnancy         = "kehamilan"
	TableDelivery          = "persalinan"
	TablePrescription      = "preskripsi"
	TableTreatmentVisit    = "riwayat_berobat"
	TableSupplement        = "suplemen_ibu_hamil"
)

// TableNames lists every table a record store is expected to serve.
var TableNames = []string{
	TableCustomer,
	TableANCVisit,
	TableDiagnosis,
	TableDoctor,
	TableLabResult,
	TablePhysicalCondition,
	TableImmunization,
	TableDoctorSchedule,
	TablePregnancy,
	TableDelivery,
	TablePrescription,
	TableTreatmentVisit,
	TableSupplement,
}

// Column names referenced by the retrieval routing. Exact spelling is part of
// the contract with the record snapshots.
const (
	ColCustomerID       = "customer_id"
	ColNIK              = "NIK"
	ColPassword         = "password"
	ColName             = "name"
	ColPregnancyID      = "id_kehamilan"
	ColANCVisitID       = "id_kunjungan"
	ColVisitID          = "visit_id"
	ColANCVisitDate     = "tanggal_kunjungan"
	ColLMPDate          = "tanggal_hpht"
	ColPregnancyStatus  = "status_kehamilan"
	ColGestationalAge   = "usia_kehamilan"
	ColBirthDate        = "tanggal_lahir"
	ColTestDate         = "test_date"
	ColStartDate        = "start_date"
	ColCreatedAt        = "created_at"
	ColPracticeDate     = "practice_date"
	ColTreatmentDate    = "visit_date"
	ColAdministeredDate = "tanggal_pemberian"
	ColExaminationDate  = "tanggal_pemeriksaan"
)

// RecordStore serves read-only table snapshots. Implementations load once at
// startup and must never mutate returned rows; the pipeline shares one store
// across concurrent sessions without locking.
type RecordStore interface {
	// Table returns every row of the named table in load order.
	// Unknown tables yield nil.
	Table(name string) []Record
}

// Get returns a column value, or empty string when absent.
func (r Record) Get(col string) string {
	return r[col]
}

// Clone returns a shallow copy safe for per-request augmentation.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
