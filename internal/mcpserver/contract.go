package mcpserver

// HabitFormatContract describes the habit record format and the scheduling
// rules LLM consumers should follow when creating or logging habits.
const HabitFormatContract = `# habitu Habit Format Contract

Every habit is a JSON record. Dates are calendar days written ` + "`" + `YYYY-MM-DD` + "`" + `.

## Record

` + "```" + `json
{
  "id": "0b6c1f9e-...",
  "name": "Drink water",
  "type": "numeric",
  "goal": 8,
  "unit": "glasses",
  "frequency": {"type": "daily"},
  "completedDates": {"2026-03-04": 5},
  "archived": false,
  "createdAt": "2026-03-01T08:00:00.000Z"
}
` + "```" + `

## Types

1. **binary** (default): a day is done when it appears in ` + "`" + `completedDates` + "`" + ` (value ` + "`" + `true` + "`" + `).
   ` + "`" + `goal` + "`" + ` is always 1.
2. **numeric**: ` + "`" + `completedDates` + "`" + ` maps days to amounts. A day is done when the
   amount reaches ` + "`" + `goal` + "`" + `. Amounts at or below zero remove the day.

## Frequency

- ` + "`" + `{"type":"daily"}` + "`" + ` is due every day (the default).
- ` + "`" + `{"type":"weekly","days":["Mon","Thu"]}` + "`" + ` is due on the listed weekdays
  (Sun, Mon, Tue, Wed, Thu, Fri, Sat). An empty list means every day.
- ` + "`" + `{"type":"interval","interval":3,"startDate":"2026-03-01"}` + "`" + ` is due every 3rd day
  counted from the start date, in both directions. The start date defaults to the creation day.

## Derived values

- **Streak**: consecutive due days that are done, counting back from today. Today not yet
  done does not break the streak; days that are not due are skipped.
- **Strength**: 0-100 over the last 30 days; the most recent 7 days weigh 1.5.
- **Archived** habits are hidden from due lists and statistics but keep their history.

## Tools

- ` + "`" + `log_habit` + "`" + ` flips binary days and adds amounts to numeric days.
- ` + "`" + `toggle_habit` + "`" + ` marks a day done or not done for either type.
- Omit ` + "`" + `date` + "`" + ` to act on today.
`
