package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/avendale/groundwork/pkg/finance"
	"github.com/avendale/groundwork/pkg/ledger"
	"github.com/avendale/groundwork/pkg/models"
	"github.com/avendale/groundwork/pkg/store"
)

// Server holds the ledger instance behind the HTTP handlers.
type Server struct {
	ledger *ledger.Ledger
}

func NewServer(l *ledger.Ledger) *Server {
	return &Server{ledger: l}
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/projects", s.listProjectsHandler).Methods("GET")
	router.HandleFunc("/projects", s.createProjectHandler).Methods("POST")
	router.HandleFunc("/projects/{id}", s.getProjectHandler).Methods("GET")
	router.HandleFunc("/projects/{id}", s.updateProjectHandler).Methods("PUT")
	router.HandleFunc("/projects/{id}", s.deleteProjectHandler).Methods("DELETE")
	router.HandleFunc("/projects/{id}/summary", s.projectSummaryHandler).Methods("GET")

	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}", s.updateLoanHandler).Methods("PUT")
	router.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	router.HandleFunc("/loans/{id}/schedule", s.loanScheduleHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/payments", s.recordLoanPaymentHandler).Methods("POST")

	router.HandleFunc("/investors", s.listInvestorsHandler).Methods("GET")
	router.HandleFunc("/investors", s.createInvestorHandler).Methods("POST")

	router.HandleFunc("/investments", s.listInvestmentsHandler).Methods("GET")
	router.HandleFunc("/investments", s.createInvestmentHandler).Methods("POST")
	router.HandleFunc("/investments/{id}", s.getInvestmentHandler).Methods("GET")
	router.HandleFunc("/investments/{id}/distributions", s.recordDistributionHandler).Methods("POST")
	router.HandleFunc("/investments/{id}/return", s.investmentReturnHandler).Methods("GET")

	router.HandleFunc("/transactions", s.listTransactionsHandler).Methods("GET")
	router.HandleFunc("/transactions", s.createTransactionHandler).Methods("POST")

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	for _, sentinel := range []error{
		models.ErrProjectNameEmpty, models.ErrProjectBudgetMismatch,
		models.ErrInvestorNameEmpty, models.ErrInvestorCategory,
		models.ErrInvestmentAmount, models.ErrDistributionAmount,
		models.ErrDistributionKind, models.ErrTransactionType,
		models.ErrTransactionAmount,
		finance.ErrInvalidPrincipal, finance.ErrInvalidRate,
		finance.ErrInvalidTerm, finance.ErrInvalidFrequency,
		finance.ErrInvalidInvestmentAmount,
		ledger.ErrScheduleSettled,
	} {
		if errors.Is(err, sentinel) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// listOptions reads the optional page/limit query parameters.
func listOptions(r *http.Request) store.ListOptions {
	var opts store.ListOptions
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		opts.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		opts.Limit = v
	}
	return opts
}

func (s *Server) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.Projects().List(listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateProject(project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, ok, err := s.ledger.Projects().Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) updateProjectHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// Unmarshalling the patch over the current record leaves every field the
	// request did not mention untouched.
	updated, ok, err := s.ledger.Projects().Update(mux.Vars(r)["id"], func(p *models.Project) error {
		if err := json.Unmarshal(body, p); err != nil {
			return err
		}
		return p.Validate()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := s.ledger.Projects().Delete(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) projectSummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, ok, err := s.ledger.ProjectSummary(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.Loans().List(listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var loan models.Loan
	if err := json.NewDecoder(r.Body).Decode(&loan); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateLoan(loan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loan, ok, err := s.ledger.Loans().Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Loan not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	var patch ledger.LoanPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, ok, err := s.ledger.UpdateLoan(mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Loan not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	removed, err := s.ledger.Loans().Delete(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		http.Error(w, "Loan not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loanScheduleHandler(w http.ResponseWriter, r *http.Request) {
	loan, ok, err := s.ledger.Loans().Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Loan not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, loan.RepaymentSchedule)
}

func (s *Server) recordLoanPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaidAt time.Time `json:"paid_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.PaidAt.IsZero() {
		req.PaidAt = time.Now().UTC()
	}
	tx, ok, err := s.ledger.RecordLoanPayment(mux.Vars(r)["id"], req.PaidAt)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Loan not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) listInvestorsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.Investors().List(listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createInvestorHandler(w http.ResponseWriter, r *http.Request) {
	var investor models.Investor
	if err := json.NewDecoder(r.Body).Decode(&investor); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateInvestor(investor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listInvestmentsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.Investments().List(listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	var investment models.Investment
	if err := json.NewDecoder(r.Body).Decode(&investment); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.CreateInvestment(investment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	investment, ok, err := s.ledger.Investments().Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Investment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, investment)
}

func (s *Server) recordDistributionHandler(w http.ResponseWriter, r *http.Request) {
	var dist models.Distribution
	if err := json.NewDecoder(r.Body).Decode(&dist); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	investment, ok, err := s.ledger.RecordDistribution(mux.Vars(r)["id"], dist)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Investment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, investment)
}

func (s *Server) investmentReturnHandler(w http.ResponseWriter, r *http.Request) {
	ret, ok, err := s.ledger.InvestmentReturn(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "Investment not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := s.ledger.Transactions().List(listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := s.ledger.RecordTransaction(tx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func main() {
	cfg, err := store.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	factory, err := store.Init(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store factory: %v", err)
	}
	defer factory.Close()

	l, err := ledger.NewLedger(factory)
	if err != nil {
		log.Fatalf("Failed to construct ledger: %v", err)
	}

	addr := env("HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:    addr,
		Handler: NewServer(l).routes(),
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP serve error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
