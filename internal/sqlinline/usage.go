package sqlinline

// QSelectUsageToday returns today's (UTC) download count for a user, 0 when absent.
const QSelectUsageToday = `--sql 5d0c8f7e-2b6a-4e4f-9a51-7c3b1f0d2e84
select coalesce((
  select used from download_usage
  where user_id = $1::text and day = (now() at time zone 'utc')::date
), 0);
`

// QReserveDownload increments today's count unless the limit ($2, negative
// for unlimited) is reached. No row is returned when the limit blocks it.
const QReserveDownload = `--sql a3e91b64-0f7d-4c28-b6d2-91e85f4c7a30
insert into download_usage as u (user_id, day, used, updated_at)
values ($1::text, (now() at time zone 'utc')::date, 1, now())
on conflict (user_id, day) do update
  set used = u.used + 1, updated_at = now()
  where $2::int < 0 or u.used < $2::int
returning u.used;
`

const QSelectUsageHistory = `--sql 7b2f4d19-c8e3-4a06-8f5b-3d61a9e0c2f7
select day, used from download_usage
where user_id = $1::text
order by day desc
limit $2::int;
`

// QSelectUsageSummaryToday returns active users and total downloads for today.
const QSelectUsageSummaryToday = `--sql e6c4a082-91fb-4d3e-a7c5-0b8d2f6e1934
select count(*)::int, coalesce(sum(used), 0)::int
from download_usage
where day = (now() at time zone 'utc')::date;
`

// QPingUsageStore is the health check round trip.
const QPingUsageStore = `--sql 0f4b7d2c-6a1e-4c93-b8d5-2e7f90a13c6b
select 1;
`

// All lists every inline query by name.
func All() map[string]string {
	return map[string]string{
		"QSelectUsageToday":        QSelectUsageToday,
		"QReserveDownload":         QReserveDownload,
		"QSelectUsageHistory":      QSelectUsageHistory,
		"QSelectUsageSummaryToday": QSelectUsageSummaryToday,
		"QPingUsageStore":          QPingUsageStore,
	}
}
