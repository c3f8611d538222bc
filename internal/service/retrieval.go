package service

import (
	"sort"

	"go.uber.org/zap"

	"github.com/carepal-health/carepal/internal/domain"
)

// Retriever assembles the record context for a classified intent. Routing is
// a fixed intent->tables mapping; every list comes back most recent first.
type Retriever struct {
	store     domain.RecordStore
	knowledge *domain.Knowledge
	logger    *zap.Logger
}

func NewRetriever(store domain.RecordStore, knowledge *domain.Knowledge, logger *zap.Logger) *Retriever {
	return &Retriever{store: store, knowledge: knowledge, logger: logger}
}

// Context routes an intent to its backing tables. Unknown intents yield an
// empty-data bundle rather than an error; the composer still answers from
// the intent description alone.
func (r *Retriever) Context(intent, customerID string) *domain.ContextBundle {
	bundle := &domain.ContextBundle{
		Intent:            intent,
		CustomerID:        customerID,
		Data:              map[string]any{},
		KnowledgeBase:     map[string]string{},
		IntentDescription: r.knowledge.DescriptionFor(intent),
	}

	switch intent {
	case "reminder_kontrol_kehamilan":
		bundle.Data = r.ancScheduleContext(customerID)
	case "anc_tracker":
		bundle.Data = r.ancTrackingContext(customerID)
	case "imunisasi_tracker":
		bundle.Data = r.immunizationContext(customerID)
	case "riwayat_persalinan":
		bundle.Data = r.deliveryHistoryContext(customerID)
	case "riwayat_suplemen_kehamilan":
		bundle.Data = r.supplementContext(customerID)
	case "riwayat_kondisi_fisik":
		bundle.Data = r.physicalConditionContext(customerID)
	case "cek_golongan_darah":
		bundle.Data = r.bloodTypeContext(customerID)
	case "cek_data_customer":
		bundle.Data = r.customerDataContext(customerID)
	case "riwayat_diagnosis", "detail_diagnosis":
		bundle.Data = r.diagnosisContext(customerID)
	case "riwayat_preskripsi_obat", "detail_preskripsi_obat":
		bundle.Data = r.prescriptionContext(customerID)
	case "riwayat_berobat":
		bundle.Data = r.treatmentHistoryContext(customerID)
	case "jadwal_dokter":
		bundle.Data = r.doctorScheduleContext()
	case "detail_dokter":
		bundle.Data = r.doctorDetailsContext()
	case "hasil_lab_ringkasan", "hasil_lab_detail":
		bundle.Data = r.labResultsContext(customerID)
	case "panduan_persiapan_persalinan":
		bundle.KnowledgeBase["pregnancy_info"] = r.knowledge.PregnancyGuidance
	default:
		r.logger.Debug("no retrieval route for intent", zap.String("intent", intent))
	}

	return bundle
}

// pregnancies returns the customer's pregnancy rows and their ids.
func (r *Retriever) pregnancies(customerID string) ([]domain.Record, []string) {
	rows := filterBy(r.store.Table(domain.TablePregnancy), domain.ColCustomerID, customerID)
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Get(domain.ColPregnancyID))
	}
	return rows, ids
}

func (r *Retriever) ancVisits(pregnancyIDs []string) []domain.Record {
	visits := filterIn(r.store.Table(domain.TableANCVisit), domain.ColPregnancyID, pregnancyIDs)
	return sortByDesc(visits, domain.ColANCVisitDate)
}

func (r *Retriever) deliveries(pregnancyIDs []string) []domain.Record {
	rows := filterIn(r.store.Table(domain.TableDelivery), domain.ColPregnancyID, pregnancyIDs)
	return sortByDesc(rows, domain.ColBirthDate)
}

func (r *Retriever) ancScheduleContext(customerID string) map[string]any {
	data := map[string]any{}
	pregnancies, ids := r.pregnancies(customerID)
	if len(pregnancies) > 0 {
		data["pregnancy_data"] = pregnancies
	}
	data["anc_visits"] = r.ancVisits(ids)
	data["deliveries"] = r.deliveries(ids)
	return data
}

func (r *Retriever) ancTrackingContext(customerID string) map[string]any {
	data := map[string]any{}
	pregnancies, ids := r.pregnancies(customerID)
	if len(pregnancies) > 0 {
		data["pregnancy_data"] = pregnancies
	}
	data["anc_visits"] = r.ancVisits(ids)
	return data
}

func (r *Retriever) immunizationContext(customerID string) map[string]any {
	_, ids := r.pregnancies(customerID)
	rows := filterIn(r.store.Table(domain.TableImmunization), domain.ColPregnancyID, ids)
	return map[string]any{
		"immunizations": sortByDesc(rows, domain.ColAdministeredDate),
	}
}

func (r *Retriever) deliveryHistoryContext(customerID string) map[string]any {
	data := map[string]any{}
	pregnancies, ids := r.pregnancies(customerID)
	if len(pregnancies) > 0 {
		data["pregnancies"] = pregnancies
	}
	data["deliveries"] = r.deliveries(ids)
	return data
}

// supplementContext joins supplements to their ANC visit to recover the visit
// date, which the supplement rows themselves lack.
func (r *Retriever) supplementContext(customerID string) map[string]any {
	_, pregnancyIDs := r.pregnancies(customerID)
	visits := filterIn(r.store.Table(domain.TableANCVisit), domain.ColPregnancyID, pregnancyIDs)

	visitDates := make(map[string]string, len(visits))
	visitIDs := make([]string, 0, len(visits))
	for _, v := range visits {
		id := v.Get(domain.ColANCVisitID)
		visitIDs = append(visitIDs, id)
		visitDates[id] = v.Get(domain.ColANCVisitDate)
	}

	supplements := filterIn(r.store.Table(domain.TableSupplement), domain.ColANCVisitID, visitIDs)
	merged := make([]domain.Record, 0, len(supplements))
	for _, s := range supplements {
		row := s.Clone()
		row[domain.ColANCVisitDate] = visitDates[s.Get(domain.ColANCVisitID)]
		merged = append(merged, row)
	}

	return map[string]any{
		"supplements": sortByDesc(merged, domain.ColANCVisitDate),
	}
}

func (r *Retriever) physicalConditionContext(customerID string) map[string]any {
	rows := filterBy(r.store.Table(domain.TablePhysicalCondition), domain.ColCustomerID, customerID)
	return map[string]any{
		"physical_conditions": sortByDesc(rows, domain.ColExaminationDate),
	}
}

func (r *Retriever) bloodTypeContext(customerID string) map[string]any {
	data := map[string]any{}
	if row := r.customerRow(customerID); row != nil {
		data["customer_info"] = row
	}
	return data
}

// customerDataContext flattens the common profile fields next to the full row
// so prompt templates can reference them directly.
func (r *Retriever) customerDataContext(customerID string) map[string]any {
	data := map[string]any{}
	row := r.customerRow(customerID)
	if row == nil {
		return data
	}
	data["customer_info"] = row

	data["name"] = valueOr(row, domain.ColName, "Tidak diketahui")
	for _, col := range []string{"alamat", "no_hp", "email", domain.ColBirthDate, "golongan_darah", domain.ColNIK} {
		data[col] = valueOr(row, col, "Tidak tersedia")
	}
	return data
}

func (r *Retriever) customerRow(customerID string) domain.Record {
	rows := filterBy(r.store.Table(domain.TableCustomer), domain.ColCustomerID, customerID)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// visitIDs returns the customer's treatment visit ids, the join key for
// diagnosis and prescription lookups.
func (r *Retriever) visitIDs(customerID string) []string {
	visits := filterBy(r.store.Table(domain.TableTreatmentVisit), domain.ColCustomerID, customerID)
	ids := make([]string, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.Get(domain.ColVisitID))
	}
	return ids
}

func (r *Retriever) diagnosisContext(customerID string) map[string]any {
	rows := filterIn(r.store.Table(domain.TableDiagnosis), domain.ColVisitID, r.visitIDs(customerID))
	return map[string]any{
		"diagnoses": sortByDesc(rows, domain.ColCreatedAt),
	}
}

func (r *Retriever) prescriptionContext(customerID string) map[string]any {
	rows := filterIn(r.store.Table(domain.TablePrescription), domain.ColVisitID, r.visitIDs(customerID))
	return map[string]any{
		"prescriptions": sortByDesc(rows, domain.ColStartDate),
	}
}

func (r *Retriever) treatmentHistoryContext(customerID string) map[string]any {
	rows := filterBy(r.store.Table(domain.TableTreatmentVisit), domain.ColCustomerID, customerID)
	return map[string]any{
		"treatments": sortByDesc(rows, domain.ColTreatmentDate),
	}
}

func (r *Retriever) doctorScheduleContext() map[string]any {
	schedules := sortByDesc(r.store.Table(domain.TableDoctorSchedule), domain.ColPracticeDate)
	return map[string]any{
		"doctor_schedules": schedules,
		"doctors":          r.store.Table(domain.TableDoctor),
	}
}

func (r *Retriever) doctorDetailsContext() map[string]any {
	return map[string]any{
		"doctors": r.store.Table(domain.TableDoctor),
	}
}

func (r *Retriever) labResultsContext(customerID string) map[string]any {
	rows := filterBy(r.store.Table(domain.TableLabResult), domain.ColCustomerID, customerID)
	return map[string]any{
		"lab_results": sortByDesc(rows, domain.ColTestDate),
	}
}

// HistorySummary is the condensed recent-activity view the recommendation
// ranker seeds its prompt with.
type HistorySummary struct {
	CustomerID          string          `json:"customer_id"`
	RecentVisits        []domain.Record `json:"recent_visits"`
	RecentDiagnoses     []domain.Record `json:"recent_diagnoses"`
	RecentPrescriptions []domain.Record `json:"recent_prescriptions"`
	RecentLabResults    []domain.Record `json:"recent_lab_results"`
}

// UserHistorySummary collects the three most recent entries from each of the
// main history tables.
func (r *Retriever) UserHistorySummary(customerID string) HistorySummary {
	visitIDs := r.visitIDs(customerID)

	visits := filterBy(r.store.Table(domain.TableTreatmentVisit), domain.ColCustomerID, customerID)
	diagnoses := filterIn(r.store.Table(domain.TableDiagnosis), domain.ColVisitID, visitIDs)
	prescriptions := filterIn(r.store.Table(domain.TablePrescription), domain.ColVisitID, visitIDs)
	labs := filterBy(r.store.Table(domain.TableLabResult), domain.ColCustomerID, customerID)

	return HistorySummary{
		CustomerID:          customerID,
		RecentVisits:        head(sortByDesc(visits, domain.ColTreatmentDate), 3),
		RecentDiagnoses:     head(sortByDesc(diagnoses, domain.ColCreatedAt), 3),
		RecentPrescriptions: head(sortByDesc(prescriptions, domain.ColStartDate), 3),
		RecentLabResults:    head(sortByDesc(labs, domain.ColTestDate), 3),
	}
}

func filterBy(rows []domain.Record, col, value string) []domain.Record {
	var out []domain.Record
	for _, row := range rows {
		if row.Get(col) == value {
			out = append(out, row)
		}
	}
	return out
}

func filterIn(rows []domain.Record, col string, values []string) []domain.Record {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	var out []domain.Record
	for _, row := range rows {
		if _, ok := set[row.Get(col)]; ok {
			out = append(out, row)
		}
	}
	return out
}

// sortByDesc orders rows by a column, newest first. Dates are ISO-formatted
// strings, so lexicographic comparison orders them correctly. Stable so rows
// with equal keys keep load order.
func sortByDesc(rows []domain.Record, col string) []domain.Record {
	out := make([]domain.Record, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Get(col) > out[j].Get(col)
	})
	return out
}

func valueOr(row domain.Record, col, fallback string) string {
	if v := row.Get(col); v != "" {
		return v
	}
	return fallback
}

func head(rows []domain.Record, n int) []domain.Record {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
