package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fastygo/rozklad/api/transport"
	"github.com/fastygo/rozklad/domain"
	"github.com/fastygo/rozklad/internal/infrastructure/monitor"
	scheduleUC "github.com/fastygo/rozklad/usecase/schedule"
)

type messageResult struct {
	Message string `json:"message"`
}

func message(format string, args ...interface{}) messageResult {
	return messageResult{Message: fmt.Sprintf(format, args...)}
}

func (a *app) render(v interface{}) error {
	if a.json {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	switch r := v.(type) {
	case messageResult:
		fmt.Fprintln(tw, r.Message)
	case *transport.MessageResponse:
		fmt.Fprintln(tw, r.Message)
	case *domain.User:
		if r == nil {
			fmt.Fprintln(tw, "Not signed in")
			return nil
		}
		fmt.Fprintf(tw, "%s\t%s\n", r.FullName, r.Role)
		fmt.Fprintf(tw, "username\t%s\n", r.Username)
		if r.Email != "" {
			fmt.Fprintf(tw, "email\t%s\n", r.Email)
		}
	case []domain.ScheduleEntry:
		writeEntries(tw, r)
	case *domain.ScheduleEntry:
		writeEntries(tw, []domain.ScheduleEntry{*r})
	case []scheduleUC.Day:
		for _, day := range r {
			fmt.Fprintf(tw, "%s %s\n", strings.ToUpper(string(day.Day)), day.Date.Format(domain.DateLayout))
			if len(day.Entries) == 0 {
				fmt.Fprintln(tw, "  -")
				continue
			}
			for _, e := range day.Entries {
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\n", e.StartTime, e.SubjectName, e.GroupName, teacherOf(e), e.ClassroomName, statusOf(e))
			}
		}
	case []domain.ChangeRequest:
		writeRequests(tw, r)
	case *domain.ChangeRequest:
		writeRequests(tw, []domain.ChangeRequest{*r})
	case []domain.Notification:
		writeNotifications(tw, r)
	case *domain.Notification:
		writeNotifications(tw, []domain.Notification{*r})
	case domain.Notification:
		writeNotifications(tw, []domain.Notification{r})
	case *domain.Dashboard:
		fmt.Fprintln(tw, "Today")
		writeEntries(tw, r.Today)
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Unread notifications (%d)\n", len(r.Unread))
		writeNotifications(tw, r.Unread)
		if r.PendingRequests != nil {
			fmt.Fprintln(tw)
			fmt.Fprintf(tw, "Pending requests (%d)\n", len(r.PendingRequests))
			writeRequests(tw, r.PendingRequests)
		}
	case monitor.Status:
		fmt.Fprintf(tw, "backend\t%s\t%s\n", onOff(r.Backend), r.BackendError)
		fmt.Fprintf(tw, "storage\t%s\t%s\n", onOff(r.Storage), r.StorageName)
		fmt.Fprintf(tw, "checked\t%s\n", r.LastCheck.Format("15:04:05"))
	case []domain.Group:
		fmt.Fprintln(tw, "ID\tNAME\tYEAR\tSTUDENTS")
		for _, g := range r {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Name, intOrDash(g.Year), intOrDash(g.StudentCount))
		}
	case []domain.Teacher:
		fmt.Fprintln(tw, "ID\tNAME\tSPECIALIZATION")
		for _, t := range r {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.FullName, strOrDash(t.Specialization))
		}
	case []domain.Classroom:
		fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCAPACITY")
		for _, c := range r {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, intOrDash(c.Capacity))
		}
	case []domain.Subject:
		fmt.Fprintln(tw, "ID\tNAME\tTYPE")
		for _, s := range r {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Name, s.Type)
		}
	case []domain.TimeSlot:
		fmt.Fprintln(tw, "ID\tPERIOD\tNAME\tSTART\tEND")
		for _, ts := range r {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", ts.ID, ts.PeriodNumber, ts.Name, ts.StartTime, ts.EndTime)
		}
	default:
		enc := json.NewEncoder(tw)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return nil
}

func writeEntries(w io.Writer, entries []domain.ScheduleEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No classes")
		return
	}
	fmt.Fprintln(w, "ID\tDAY\tTIME\tSUBJECT\tGROUP\tTEACHER\tROOM\tSTATUS")
	for _, e := range entries {
		day := string(e.DayOfWeek)
		if e.SpecificDate != nil {
			day = *e.SpecificDate
		}
		fmt.Fprintf(w, "%d\t%s\t%s-%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, day, e.StartTime, e.EndTime, e.SubjectName, e.GroupName, teacherOf(e), e.ClassroomName, statusOf(e))
	}
}

func writeRequests(w io.Writer, requests []domain.ChangeRequest) {
	if len(requests) == 0 {
		fmt.Fprintln(w, "No requests")
		return
	}
	fmt.Fprintln(w, "ID\tTYPE\tENTRY\tDATE\tSTATUS\tREASON")
	for _, r := range requests {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n", r.ID, r.ChangeType, r.ScheduleEntryID, r.RequestedDate, r.Status, r.Reason)
	}
}

func writeNotifications(w io.Writer, items []domain.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}
	for _, n := range items {
		mark := "*"
		if n.IsRead {
			mark = " "
		}
		fmt.Fprintf(w, "%s %d\t%s\t%s\t%s\n", mark, n.ID, n.CreatedAt.Format("2006-01-02 15:04"), n.Title, n.Message)
	}
}

func teacherOf(e domain.ScheduleEntry) string {
	if e.SubstituteTeacherName != nil {
		return *e.SubstituteTeacherName + " (sub)"
	}
	return e.TeacherName
}

func statusOf(e domain.ScheduleEntry) string {
	if e.IsChanged() {
		return strings.ToUpper(string(e.Status))
	}
	return ""
}

func onOff(ok bool) string {
	if ok {
		return "ok"
	}
	return "down"
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func strOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
